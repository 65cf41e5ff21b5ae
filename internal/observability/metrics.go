package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges shared by
// the split pass, the collector, and the profile API.
type Metrics struct {
	// Ingest metrics.
	RawFilesLoaded prometheus.Counter
	RawRowsSkipped prometheus.Counter
	RecordsLoaded  prometheus.Counter
	RecordsNoGeo   prometheus.Counter

	// Clustering and persistence metrics.
	ClustersEmitted      prometheus.Counter
	ClusterSize          prometheus.Histogram
	SitesWritten         prometheus.Counter
	CoordinateCollisions prometheus.Counter
	SplitDuration        prometheus.Histogram

	// Catalog and profile metrics.
	CatalogSites    prometheus.Gauge
	ProfileRequests *prometheus.CounterVec // labels: outcome={ok,empty,unknown_site,bad_request}
	ProfilePoints   prometheus.Histogram

	// Collector metrics.
	ReadingsConsumed prometheus.Counter
	RawFilesWritten  prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache    *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeEnabled  prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RawFilesLoaded,
		m.RawRowsSkipped,
		m.RecordsLoaded,
		m.RecordsNoGeo,
		m.ClustersEmitted,
		m.ClusterSize,
		m.SitesWritten,
		m.CoordinateCollisions,
		m.SplitDuration,
		m.CatalogSites,
		m.ProfileRequests,
		m.ProfilePoints,
		m.ReadingsConsumed,
		m.RawFilesWritten,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeEnabled,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RawFilesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sonde",
			Name:      "raw_files_loaded_total",
			Help:      "Raw CSV files successfully loaded from the raw directory.",
		}),
		RawRowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sonde",
			Name:      "raw_rows_skipped_total",
			Help:      "Malformed raw CSV rows skipped during ingest.",
		}),
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sonde",
			Name:      "records_loaded_total",
			Help:      "Sensor records loaded across all raw files.",
		}),
		RecordsNoGeo: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sonde",
			Name:      "records_no_geo_total",
			Help:      "Records excluded from clustering for missing Lat/Lon.",
		}),
		ClustersEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sonde",
			Name:      "clusters_emitted_total",
			Help:      "Spatial clusters produced by the split pass.",
		}),
		ClusterSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sonde",
			Name:      "cluster_size",
			Help:      "Number of records per emitted cluster.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		SitesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sonde",
			Name:      "sites_written_total",
			Help:      "Per-site datasets written to the sites directory.",
		}),
		CoordinateCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sonde",
			Name:      "coordinate_collisions_total",
			Help:      "Clusters whose representative coordinate rounded to an already-written filename.",
		}),
		SplitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sonde",
			Name:      "split_duration_seconds",
			Help:      "Duration of a complete ingest-cluster-persist pass.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
		CatalogSites: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sonde",
			Name:      "catalog_sites",
			Help:      "Number of sites in the most recently built catalog.",
		}),
		ProfileRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sonde",
			Name:      "profile_requests_total",
			Help:      "Profile API requests by outcome.",
		}, []string{"outcome"}),
		ProfilePoints: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sonde",
			Name:      "profile_points",
			Help:      "Number of depth points per served profile series.",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
		}),
		ReadingsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sonde",
			Name:      "readings_consumed_total",
			Help:      "Raw readings consumed from the source topic.",
		}),
		RawFilesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sonde",
			Name:      "raw_files_written_total",
			Help:      "Raw CSV files written to the raw directory by the collector.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sonde",
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sonde",
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sonde",
			Name:      "geocode_enabled",
			Help:      "1 when place-name annotation is enabled, 0 otherwise.",
		}),
	}
}
