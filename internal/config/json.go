package config

import (
	"encoding/json"
	"os"

	"github.com/guardia-tools/notekeeper/internal/flagx"
	"github.com/guardia-tools/notekeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so the timeout can be specified either as a string like
// "60s" or as integer nanoseconds.
type JsonConfig struct {
	DatabaseDSN      string         `json:"database_dsn"`
	BiometricTimeout timex.Duration `json:"biometric_timeout"`
	LogLevel         string         `json:"log_level"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. With no such flag it is a no-op. Read and unmarshal errors
// panic; the config is loaded once at startup and a broken file should stop
// the process.
func parseJson(cfg *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.BiometricTimeout.Duration > 0 {
		cfg.BiometricTimeout = jc.BiometricTimeout.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
