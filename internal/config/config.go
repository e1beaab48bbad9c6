package config

import "time"

// Config holds runtime settings for the notekeeper CLI.
type Config struct {
	// DatabaseDSN is the SQLite database path or DSN.
	DatabaseDSN string
	// BiometricTimeout bounds how long an unanswered authenticator ceremony
	// may run before it counts as declined.
	BiometricTimeout time.Duration
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "notekeeper.db"
	c.BiometricTimeout = 60 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
