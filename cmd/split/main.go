// Command split runs the offline geo-split pass: load every raw sonde CSV,
// group geotagged readings into sites, and persist one dataset per site for
// the server to catalog.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lakewatch/sonde-site-service/internal/adapter/csvfile"
	"github.com/lakewatch/sonde-site-service/internal/config"
	"github.com/lakewatch/sonde-site-service/internal/domain"
	"github.com/lakewatch/sonde-site-service/internal/observability"
	"github.com/lakewatch/sonde-site-service/internal/pipeline"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := csvfile.NewRecordStore(cfg.RawDir, logger, metrics)
	writer := csvfile.NewSiteWriter(cfg.SitesDir, logger, metrics)
	clusterer := domain.NewClusterer(cfg.DistanceThresholdM)

	p := pipeline.New(store, clusterer, writer, logger, metrics)

	summary, err := p.Run(ctx)
	if err != nil {
		logger.Error("split pass failed", "error", err)
		os.Exit(1)
	}

	logger.Info("done",
		"files_loaded", summary.FilesLoaded,
		"records", summary.RecordsLoaded,
		"sites_written", summary.SitesWritten,
	)
}
