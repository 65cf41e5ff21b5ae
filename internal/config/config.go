package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Default display parameters offered to the visualization layer, matching
// the columns a standard YSI sonde exports.
var defaultParameters = []string{"Chl ug/L", "PC ug/L", "°C", "DO mg/L", "pH", "ORP mV"}

// Config holds all service settings, populated from environment variables.
// Components receive the values they need at construction time; nothing
// reads the environment after Load returns.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Directory layout.
	RawDir    string
	SitesDir  string
	OutputDir string

	// Clustering and profile settings.
	DistanceThresholdM float64
	DepthColumn        string
	Parameters         []string

	// Mapbox configuration: the access token doubles as the base-map tile
	// token for the visualization layer and the geocoding credential here.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Collector (Kafka) configuration.
	KafkaBrokers           []string
	KafkaTopic             string
	KafkaGroupID           string
	CollectorBatchSize     int
	CollectorFlushInterval time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	flushInterval, err := parseDuration("COLLECTOR_FLUSH_INTERVAL", "5s")
	if err != nil {
		return nil, err
	}

	threshold, err := parseFloat("DISTANCE_THRESHOLD_M", 50)
	if err != nil {
		return nil, err
	}

	batchSize, err := parseInt("COLLECTOR_BATCH_SIZE", 500)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("MAPBOX_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		RawDir:    envOrDefault("RAW_DIR", filepath.Join("data", "raw")),
		SitesDir:  envOrDefault("SITES_DIR", filepath.Join("data", "sites")),
		OutputDir: envOrDefault("OUTPUT_DIR", filepath.Join("data", "output")),

		DistanceThresholdM: threshold,
		DepthColumn:        envOrDefault("DEPTH_COLUMN", "DEP m"),
		Parameters:         parseList(os.Getenv("PARAMETERS"), defaultParameters),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: cacheSize,

		KafkaBrokers:           parseList(envOrDefault("KAFKA_BROKERS", "localhost:9092"), nil),
		KafkaTopic:             envOrDefault("KAFKA_TOPIC", "raw-sonde-readings"),
		KafkaGroupID:           envOrDefault("KAFKA_GROUP_ID", "sonde-collector"),
		CollectorBatchSize:     batchSize,
		CollectorFlushInterval: flushInterval,
	}

	if cfg.DistanceThresholdM <= 0 {
		return nil, errors.New("DISTANCE_THRESHOLD_M must be positive")
	}
	if cfg.RawDir == "" || cfg.SitesDir == "" || cfg.OutputDir == "" {
		return nil, errors.New("RAW_DIR, SITES_DIR, and OUTPUT_DIR are required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}

	return cfg, nil
}

// EnsureDirectories creates the directory layout: raw inputs, per-site
// datasets, and the output root with its plot/geo/table subareas. The
// latter two are reserved for exports the service does not produce yet.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.RawDir,
		c.SitesDir,
		c.OutputDir,
		filepath.Join(c.OutputDir, "plots"),
		filepath.Join(c.OutputDir, "geo"),
		filepath.Join(c.OutputDir, "tables"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

func parseInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

// parseList splits a comma-separated value, trimming whitespace and
// dropping empty items. An empty input yields the fallback.
func parseList(raw string, fallback []string) []string {
	if raw == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
