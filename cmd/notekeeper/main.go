package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/guardia-tools/notekeeper/internal/cli"
	"github.com/guardia-tools/notekeeper/internal/config"
	"github.com/guardia-tools/notekeeper/internal/logging"
)

func main() {
	cfg := config.LoadConfig()

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := logging.NewSlogLogger(slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	))

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(context.Background())
}
