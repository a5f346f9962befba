package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nadirk/chatwire/internal/server"
	"github.com/nadirk/chatwire/pkg/config"
	"github.com/nadirk/chatwire/pkg/directory"
	"github.com/nadirk/chatwire/pkg/logging"
)

func main() {
	logger := logging.New(logging.LevelInfo)
	slog.SetDefault(logger)

	cfg, err := config.Load(logger, "config")
	if err != nil {
		logger.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger = logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dir, err := directory.Open(logger, cfg.Directory.Path, cfg.Directory.InMemory)
	if err != nil {
		logger.Error("Failed to open directory store", slog.Any("error", err))
		os.Exit(1)
	}
	defer dir.Close()

	app := server.NewApp(logger, ctx, cfg, dir)
	if err := app.Run(); err != nil {
		logger.Error("Application run failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down successfully.")
}
