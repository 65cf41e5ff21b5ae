// Command server rebuilds the site catalog from the persisted site datasets
// and serves the read-only site/profile API to the visualization layer.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/lakewatch/sonde-site-service/internal/adapter/csvfile"
	"github.com/lakewatch/sonde-site-service/internal/adapter/httpapi"
	"github.com/lakewatch/sonde-site-service/internal/adapter/mapbox"
	"github.com/lakewatch/sonde-site-service/internal/catalog"
	"github.com/lakewatch/sonde-site-service/internal/config"
	"github.com/lakewatch/sonde-site-service/internal/domain"
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

	cat, err := catalog.Build(cfg.SitesDir, logger, metrics)
	if err != nil {
		logger.Error("failed to build site catalog", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Place-name annotation is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	if cfg.MapboxEnabled {
		var geocoder domain.Geocoder = mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(geocoder, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox annotation enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
		cat.Annotate(ctx, geocoder, logger)
	} else {
		logger.Info("mapbox annotation disabled")
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, cat, csvfile.NewSiteReader(logger), httpapi.Options{
		DepthColumn: cfg.DepthColumn,
		Parameters:  cfg.Parameters,
		MapboxToken: cfg.MapboxToken,
	}, logger, metrics)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
