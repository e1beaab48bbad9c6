package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-d", "vault.db", "-t", "10", "-l", "debug"},
			expected: &Config{
				DatabaseDSN:      "vault.db",
				BiometricTimeout: 10 * time.Second,
				LogLevel:         "debug",
			},
		},
		{
			name: "defaults survive absent flags",
			args: []string{"cmd", "-d", "vault.db"},
			expected: &Config{
				DatabaseDSN:      "vault.db",
				BiometricTimeout: 60 * time.Second,
				LogLevel:         "info",
			},
		},
		{
			name:        "incorrect timeout",
			args:        []string{"cmd", "-d", "vault.db", "-t", "abc"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			cfg := &Config{}
			cfg.LoadDefaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg) })
			assert.Equal(t, tt.expected, cfg)
		})
	}
}
