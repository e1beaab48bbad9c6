// Package config loads runtime configuration for the notekeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   SQLite database path
//	-t int      biometric ceremony timeout (seconds)
//	-l string   log level: debug, info, warn or error
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so it can be either
// a string like "60s" or integer nanoseconds:
//
//	{
//	  "database_dsn": "notekeeper.db",
//	  "biometric_timeout": "60s",
//	  "log_level": "info"
//	}
package config
