package translator

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"twitchlate/internal/app/adapters/metrics"
	"twitchlate/internal/app/domain/names"
	"twitchlate/internal/app/domain/script"
	"twitchlate/internal/app/ports"
	"twitchlate/pkg/logger"
)

var (
	urlPattern = regexp.MustCompile(`^https?://`)
	// at least one letter, digit, CJK, kana, hangul or cyrillic rune;
	// anything else is junk input not worth a provider call
	translatablePattern = regexp.MustCompile(`[a-zA-Z0-9\x{4e00}-\x{9fff}\x{3040}-\x{309f}\x{30a0}-\x{30ff}\x{ac00}-\x{d7af}\x{0400}-\x{04ff}]`)
)

type Translator struct {
	log       logger.Logger
	provider  ports.ProviderPort
	cache     ports.CachePort[ports.TranslationResult]
	protector *names.Protector
}

func New(log logger.Logger, provider ports.ProviderPort, cache ports.CachePort[ports.TranslationResult], protector *names.Protector) *Translator {
	return &Translator{
		log:       log,
		provider:  provider,
		cache:     cache,
		protector: protector,
	}
}

// Translate turns raw chat text into a translation decision. Provider
// failures degrade to a pass-through result; a single bad call must
// never abort the queue draining above this layer.
func (t *Translator) Translate(ctx context.Context, text, targetLang string) ports.TranslationResult {
	cacheKey := text + "\x00" + targetLang
	if cached, ok := t.cache.Get(cacheKey); ok {
		metrics.CacheHits.Inc()
		t.log.Debug("Cache hit", slog.String("text", text))
		return cached
	}

	// junk input short-circuits without a cache write: cheap to
	// recompute, and caching it would grow the cache without bound
	if utf8.RuneCountInString(text) < 2 || urlPattern.MatchString(text) || !translatablePattern.MatchString(text) {
		return ports.TranslationResult{
			TranslatedText:   text,
			DetectedLanguage: "unknown",
			IsTranslated:     false,
			DetectedScript:   "none",
		}
	}

	analysis := script.Analyze(text)
	t.log.Debug("Script detection",
		slog.String("text", text),
		slog.String("dominant", analysis.DominantScript),
		slog.String("language", analysis.Language),
		slog.Any("counts", analysis.Counts),
	)

	passThrough := ports.TranslationResult{
		TranslatedText:   text,
		DetectedLanguage: "unknown",
		IsTranslated:     false,
		DetectedScript:   analysis.DominantScript,
	}

	protected, replacements := t.protector.Protect(text)

	resp, err := t.provider.Dispatch(ctx, protected, targetLang)
	if err != nil {
		t.log.Error("Provider dispatch failed", err, slog.String("text", text))
		return passThrough
	}
	if resp.Status != http.StatusOK {
		t.log.Warn("Provider returned non-ok status", slog.Int("status", resp.Status))
		return passThrough
	}

	translated := t.protector.Restore(resp.TranslatedText, replacements)
	if strings.Contains(translated, "__PROTECTED_NAME_") {
		t.log.Debug("Unrestored placeholder in provider output", slog.String("text", translated))
	}

	normalizedDetected := normalizeLang(resp.DetectedLanguage)
	normalizedTarget := normalizeLang(targetLang)

	result := ports.TranslationResult{
		TranslatedText:   translated,
		DetectedLanguage: resp.DetectedLanguage,
		IsTranslated:     normalizedDetected != normalizedTarget && translated != text,
		DetectedScript:   analysis.DominantScript,
	}

	t.log.Info("Translation decision",
		slog.String("detected", normalizedDetected),
		slog.String("target", normalizedTarget),
		slog.Bool("translated", result.IsTranslated),
	)

	// no-op results are cached too, so text already in the target
	// language never costs a second provider call
	t.cache.Set(cacheKey, result)
	return result
}

// normalizeLang keeps the primary subtag: "pt-BR" and "PT" both
// normalize to "pt".
func normalizeLang(lang string) string {
	primary, _, _ := strings.Cut(lang, "-")
	return strings.ToLower(primary)
}
