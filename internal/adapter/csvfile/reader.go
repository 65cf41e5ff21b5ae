// Package csvfile adapts the filesystem CSV layout to the domain: tolerant
// loading of raw sonde exports, persistence of per-site datasets, and
// re-loading of those datasets for profile aggregation.
package csvfile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/lakewatch/sonde-site-service/internal/domain"
	"github.com/lakewatch/sonde-site-service/internal/observability"
)

// RecordStore loads every raw CSV export in one directory into a single
// record set. It implements pipeline.RecordSource.
type RecordStore struct {
	dir     string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewRecordStore creates a store over the raw directory.
func NewRecordStore(dir string, logger *slog.Logger, metrics *observability.Metrics) *RecordStore {
	return &RecordStore{dir: dir, logger: logger, metrics: metrics}
}

// LoadAll reads every *.csv file in the directory, concatenating rows into
// one record set, and returns the count of files successfully loaded.
//
// Files are loaded in lexicographic name order so that record order, and
// therefore clustering seed order, is reproducible across machines. A file
// that cannot be opened or whose header cannot be read is skipped with a
// warning; malformed rows inside a file are skipped individually. Neither is
// an error.
func (s *RecordStore) LoadAll() (domain.RecordSet, int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return domain.RecordSet{}, 0, fmt.Errorf("read raw dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var master domain.RecordSet
	loaded := 0
	for _, name := range names {
		fileSet, err := loadFile(filepath.Join(s.dir, name), s.metrics)
		if err != nil {
			s.logger.Warn("skipping unreadable raw file", "file", name, "error", err)
			continue
		}
		master.MergeColumns(fileSet.Columns)
		master.Records = append(master.Records, fileSet.Records...)
		loaded++
		s.metrics.RawFilesLoaded.Inc()
	}

	s.metrics.RecordsLoaded.Add(float64(master.Len()))
	s.logger.Info("raw files loaded", "files", loaded, "records", master.Len())
	return master, loaded, nil
}

// SiteReader re-loads a persisted site dataset for profile aggregation.
type SiteReader struct {
	logger *slog.Logger
}

// NewSiteReader creates a reader for persisted site datasets.
func NewSiteReader(logger *slog.Logger) *SiteReader {
	return &SiteReader{logger: logger}
}

// Load reads one persisted site dataset.
func (r *SiteReader) Load(path string) (domain.RecordSet, error) {
	return loadFile(path, nil)
}

// loadFile parses one CSV file into a record set. Rows whose field count
// does not match the header are skipped, as are rows the csv parser rejects.
// metrics may be nil.
func loadFile(path string, metrics *observability.Metrics) (domain.RecordSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("open: %w", err)
	}

	decoded, err := decodeLegacy(raw)
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("decode: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	set := domain.RecordSet{Columns: header}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil || len(row) != len(header) {
			if metrics != nil {
				metrics.RawRowsSkipped.Inc()
			}
			continue
		}

		record := make(domain.Record, len(header))
		for i, col := range header {
			record[col] = row[i]
		}
		set.Records = append(set.Records, record)
	}

	return set, nil
}

// decodeLegacy returns the bytes as-is when they are valid UTF-8 and
// otherwise reinterprets them as ISO-8859-1, the encoding older sonde
// firmware exports. Every byte sequence is valid ISO-8859-1, so legacy
// files can never abort a load.
func decodeLegacy(raw []byte) ([]byte, error) {
	if utf8.Valid(raw) {
		return raw, nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, fmt.Errorf("ISO-8859-1: %w", err)
	}
	return decoded, nil
}
