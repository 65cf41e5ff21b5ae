// Command collector consumes raw sonde readings from Kafka and lands them as
// CSV files in the raw directory, where the split pass picks them up. It runs
// until SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	kafkaadapter "github.com/lakewatch/sonde-site-service/internal/adapter/kafka"
	"github.com/lakewatch/sonde-site-service/internal/collector"
	"github.com/lakewatch/sonde-site-service/internal/config"
	"github.com/lakewatch/sonde-site-service/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("failed to prepare directories", "error", err)
		os.Exit(1)
	}

	reader := kafkaadapter.NewReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, logger)

	c := collector.New(reader, cfg.RawDir, cfg.CollectorBatchSize, cfg.CollectorFlushInterval, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("collector starting",
		"brokers", cfg.KafkaBrokers,
		"topic", cfg.KafkaTopic,
		"group_id", cfg.KafkaGroupID,
	)

	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("collector error", "error", err)
	}

	logger.Info("shutting down")
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
}
