package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pauljones0/graph-feed-export/internal/config"
	"github.com/pauljones0/graph-feed-export/internal/exporter"
	"github.com/pauljones0/graph-feed-export/internal/fetcher"
	"github.com/pauljones0/graph-feed-export/internal/logging"
	"github.com/pauljones0/graph-feed-export/internal/notifier"
	"github.com/pauljones0/graph-feed-export/internal/processor"
	"github.com/pauljones0/graph-feed-export/internal/transform"
	"github.com/pauljones0/graph-feed-export/internal/validator"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.LoadEnvFile(); err != nil {
		slog.Error("Failed to read .env file", "error", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		return 1
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		slog.Error("Invalid LOG_LEVEL", "error", err)
		return 1
	}

	// Cancel on SIGINT/SIGTERM. Posts fetched so far are discarded.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	fields := fetcher.ResolveFields(cfg.Fields, cfg.FieldsConfigPath, logger)
	if cfg.DiscordWebhookURL == "" {
		logger.Debug("DISCORD_WEBHOOK_URL not set, run summary will not be posted")
	}

	p := processor.New(
		cfg.GroupID,
		fetcher.New(cfg, fields, logger),
		transform.New(validator.New()),
		exporter.New(cfg.OutputDir, cfg.OutputPrefix),
		notifier.New(cfg.DiscordWebhookURL, logger),
		logger,
	)

	summary, err := p.Run(ctx)
	if err != nil {
		logger.Error("Export failed", "error", err)
		return 1
	}
	logger.Info("Total posts saved", "count", summary.Exported, "file", summary.File, "complete", summary.Complete)
	return 0
}
