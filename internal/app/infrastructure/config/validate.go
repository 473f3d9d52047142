package config

import (
	"errors"
	"fmt"
	"strings"
)

func (m *Manager) validate(cfg *Config) error {
	// app
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true}
	if cfg.App.LogLevel != "" && !validLevels[cfg.App.LogLevel] {
		return fmt.Errorf("app.log_level must be one of trace, debug, info, warn, error, fatal; got %s", cfg.App.LogLevel)
	}
	if cfg.App.GinMode != "" && cfg.App.GinMode != "debug" && cfg.App.GinMode != "release" && cfg.App.GinMode != "test" {
		return fmt.Errorf("app.gin_mode must be one of debug, release, test; got %s", cfg.App.GinMode)
	}
	if cfg.App.ListenAddr == "" {
		cfg.App.ListenAddr = ":8080"
	}

	// proxy
	if cfg.Proxy != nil && cfg.Proxy.Address != "" {
		if cfg.Proxy.Port <= 0 || cfg.Proxy.Port > 65535 {
			return errors.New("proxy.port must be [1,65535]")
		}
	}

	// translator
	t := &cfg.Translator
	if t.TargetLanguage == "" {
		return errors.New("translator.target_language is required")
	}
	if _, ok := SupportedLanguages[t.TargetLanguage]; !ok {
		return fmt.Errorf("translator.target_language %q is not supported", t.TargetLanguage)
	}
	if t.MinIntervalMs < 0 {
		return errors.New("translator.min_interval_ms must be >= 0")
	}
	if t.MaxRetries < 0 {
		return errors.New("translator.max_retries must be >= 0")
	}
	if t.RetryBaseDelayMs < 0 {
		return errors.New("translator.retry_base_delay_ms must be >= 0")
	}
	if t.PostDelayMs < 0 {
		return errors.New("translator.post_delay_ms must be >= 0")
	}
	if t.CommandPrefix == "" {
		return errors.New("translator.command_prefix is required")
	}
	if !strings.HasPrefix(t.StartCommand, t.CommandPrefix) || !strings.HasPrefix(t.StopCommand, t.CommandPrefix) {
		return errors.New("translator.start_command and stop_command must begin with command_prefix")
	}
	if t.StartCommand == t.StopCommand {
		return errors.New("translator.start_command and stop_command must differ")
	}
	if t.ProtectedNames == nil {
		t.ProtectedNames = []string{}
	}

	// cache
	if cfg.Cache.Capacity < 0 {
		return errors.New("cache.capacity must be >= 0")
	}
	if cfg.Cache.TTLSecs < 0 {
		return errors.New("cache.ttl_secs must be >= 0")
	}
	if cfg.Cache.Persist && cfg.Cache.FilePath == "" {
		return errors.New("cache.file_path is required when cache.persist is set")
	}

	return nil
}
