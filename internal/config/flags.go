package config

import (
	"flag"
	"os"
	"time"

	"github.com/guardia-tools/notekeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags. The
// arguments are filtered through flagx.FilterArgs first so flags owned by
// other components do not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "SQLite database path")
	timeout := fs.Int("t", int(cfg.BiometricTimeout.Seconds()), "biometric ceremony timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.BiometricTimeout = time.Duration(*timeout) * time.Second
}
