package ports

import "context"

// TranslationResult is the outcome of one translate call. Value type,
// cached by (source text, target language) and never mutated afterwards.
type TranslationResult struct {
	TranslatedText   string `json:"translated_text"`
	DetectedLanguage string `json:"detected_language"`
	IsTranslated     bool   `json:"is_translated"`
	DetectedScript   string `json:"detected_script"`
}

type TranslatorPort interface {
	Translate(ctx context.Context, text, targetLang string) TranslationResult
}

// ProviderResult carries the provider's answer plus the final HTTP status.
// A throttled call that exhausted its retries comes back with the 429
// status and a nil error; the caller decides what to make of it.
type ProviderResult struct {
	TranslatedText   string
	DetectedLanguage string
	Status           int
}

type ProviderPort interface {
	Dispatch(ctx context.Context, text, targetLang string) (*ProviderResult, error)
}
