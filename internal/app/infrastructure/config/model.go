package config

type Config struct {
	App        App         `json:"app"`
	Proxy      *Proxy      `json:"proxy"`
	Translator Translator  `json:"translator"`
	Cache      CacheConfig `json:"cache"`
}

type App struct {
	LogLevel   string `json:"log_level"`
	GinMode    string `json:"gin_mode"`
	Username   string `json:"username"`
	OAuth      string `json:"oauth"`
	ListenAddr string `json:"listen_addr"`
	AuthToken  string `json:"auth_token"`
}

type Proxy struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

type Translator struct {
	TargetLanguage   string   `json:"target_language"`
	MinIntervalMs    int      `json:"min_interval_ms"`
	MaxRetries       int      `json:"max_retries"`
	RetryBaseDelayMs int      `json:"retry_base_delay_ms"`
	PostDelayMs      int      `json:"post_delay_ms"`
	ProtectedNames   []string `json:"protected_names"`
	CommandPrefix    string   `json:"command_prefix"`
	StartCommand     string   `json:"start_command"`
	StopCommand      string   `json:"stop_command"`
	DrainOnStop      bool     `json:"drain_on_stop"`
}

type CacheConfig struct {
	Capacity      int    `json:"capacity"`
	TTLSecs       int    `json:"ttl_secs"`
	Persist       bool   `json:"persist"`
	FilePath      string `json:"file_path"`
	FlushInterval int    `json:"flush_interval_secs"`
}

// SupportedLanguages is the allowlist checked when a start request names
// a target language.
var SupportedLanguages = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"ar": "Arabic",
}
