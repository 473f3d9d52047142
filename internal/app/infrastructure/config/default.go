package config

func (m *Manager) GetDefault() *Config {
	return &Config{
		App: App{
			LogLevel:   "info",
			GinMode:    "release",
			ListenAddr: ":8080",
		},
		Translator: Translator{
			TargetLanguage:   "es",
			MinIntervalMs:    2000,
			MaxRetries:       2,
			RetryBaseDelayMs: 5000,
			PostDelayMs:      2000,
			ProtectedNames:   []string{},
			CommandPrefix:    "!",
			StartCommand:     "!ton",
			StopCommand:      "!toff",
			DrainOnStop:      true,
		},
		Cache: CacheConfig{
			Capacity:      0,
			TTLSecs:       0,
			Persist:       false,
			FilePath:      "cache/translations.json",
			FlushInterval: 60,
		},
	}
}
