package config

import (
	"os"

	"github.com/joho/godotenv"
)

// applyEnv overlays chat credentials from the environment so they can
// stay out of config.json. A .env file is honored when present.
func (m *Manager) applyEnv() {
	_ = godotenv.Load()

	m.mu.Lock()
	defer m.mu.Unlock()

	if v := os.Getenv("TWITCH_BOT_USERNAME"); v != "" {
		m.cfg.App.Username = v
	}
	if v := os.Getenv("TWITCH_OAUTH_TOKEN"); v != "" {
		m.cfg.App.OAuth = v
	}
	if v := os.Getenv("AUTH_TOKEN"); v != "" {
		m.cfg.App.AuthToken = v
	}
}
