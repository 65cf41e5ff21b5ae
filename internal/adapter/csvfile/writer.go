package csvfile

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lakewatch/sonde-site-service/internal/domain"
	"github.com/lakewatch/sonde-site-service/internal/observability"
)

// SiteWriter persists one dataset per cluster in the sites directory,
// keyed by the cluster's representative coordinate. It implements
// pipeline.SiteSink.
type SiteWriter struct {
	dir     string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSiteWriter creates a writer into the sites directory.
func NewSiteWriter(dir string, logger *slog.Logger, metrics *observability.Metrics) *SiteWriter {
	return &SiteWriter{dir: dir, logger: logger, metrics: metrics}
}

// WriteAll persists every cluster and returns the count of site files
// written. columns is the master column order from ingest; persisted files
// keep that order minus the dropped columns. Two clusters whose
// representative coordinates round to the same filename collide; the later
// write wins, with a warning, matching the identity model where the
// filename is the site.
func (w *SiteWriter) WriteAll(clusters []domain.Cluster, columns []string) (int, error) {
	written := 0
	seen := make(map[string]bool, len(clusters))

	for _, cluster := range clusters {
		name := domain.SiteFilename(cluster.Representative)
		if seen[name] {
			w.logger.Warn("representative coordinate collision, overwriting earlier site",
				"file", name,
				"lat", cluster.Representative.Lat,
				"lon", cluster.Representative.Lon,
			)
			w.metrics.CoordinateCollisions.Inc()
		}
		seen[name] = true

		if err := w.write(name, cluster, columns); err != nil {
			return written, fmt.Errorf("write site %s: %w", name, err)
		}
		written++
		w.metrics.SitesWritten.Inc()
	}

	return written, nil
}

// write persists one cluster. Lat/Lon columns are dropped (the filename now
// carries the identity) along with any column empty across the whole cluster.
func (w *SiteWriter) write(name string, cluster domain.Cluster, master []string) error {
	columns := siteColumns(cluster, master)

	f, err := os.Create(filepath.Join(w.dir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(columns); err != nil {
		return err
	}

	row := make([]string, len(columns))
	for _, record := range cluster.Records {
		for i, col := range columns {
			row[i] = record[col]
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}

// siteColumns filters the master column order down to what this cluster's
// dataset keeps: no coordinates, no fully-empty columns.
func siteColumns(cluster domain.Cluster, master []string) []string {
	var columns []string
	for _, col := range master {
		if col == domain.ColumnLat || col == domain.ColumnLon {
			continue
		}
		if columnEmpty(cluster.Records, col) {
			continue
		}
		columns = append(columns, col)
	}
	return columns
}

func columnEmpty(records []domain.Record, col string) bool {
	for _, r := range records {
		if v, ok := r[col]; ok && v != "" {
			return false
		}
	}
	return true
}
