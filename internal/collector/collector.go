// Package collector bridges the streaming world and the batch pipeline: it
// drains raw sonde readings from a message feed and lands them as CSV files
// in the raw directory, where the next split pass picks them up. Offsets are
// committed only after a batch is durably on disk, so a crash re-delivers
// rather than loses readings (at the cost of possible duplicate rows, which
// clustering tolerates).
package collector

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/lakewatch/sonde-site-service/internal/observability"
)

// RawReading is one unprocessed message from the readings topic.
type RawReading struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// BatchExtractor reads up to batchSize raw readings from the source,
// returning a partial batch once the deadline passes.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int, deadline time.Duration) ([]RawReading, error)
}

// Collector runs the drain loop.
type Collector struct {
	extractor     BatchExtractor
	rawDir        string
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	metrics       *observability.Metrics
	clock         clockwork.Clock
}

// New creates a Collector writing into rawDir.
func New(extractor BatchExtractor, rawDir string, batchSize int, flushInterval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	return &Collector{
		extractor:     extractor,
		rawDir:        rawDir,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        logger,
		metrics:       metrics,
		clock:         clockwork.NewRealClock(),
	}
}

// WithClock swaps the time source, for deterministic file names in tests.
func (c *Collector) WithClock(clock clockwork.Clock) *Collector {
	c.clock = clock
	return c
}

// Run drains batches until the context is cancelled.
func (c *Collector) Run(ctx context.Context) error {
	c.logger.Info("collector started", "raw_dir", c.rawDir, "batch_size", c.batchSize)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("collector stopping", "reason", ctx.Err())
			return nil
		default:
		}

		batch, err := c.extractor.ExtractBatch(ctx, c.batchSize, c.flushInterval)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("extract batch failed", "error", err)
			continue
		}
		if len(batch) == 0 {
			continue
		}

		if err := c.landBatch(ctx, batch); err != nil {
			c.logger.Error("land batch failed", "error", err, "batch_size", len(batch))
			continue
		}
	}
}

// landBatch writes one batch as a raw CSV file and then commits offsets.
func (c *Collector) landBatch(ctx context.Context, batch []RawReading) error {
	readings := make([]map[string]string, 0, len(batch))
	for _, raw := range batch {
		cells, err := decodeReading(raw.Value)
		if err != nil {
			// A malformed message is logged, skipped, and committed; it
			// would never parse on retry either.
			c.logger.Warn("skipping malformed reading",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			continue
		}
		readings = append(readings, cells)
	}

	if len(readings) > 0 {
		name := fmt.Sprintf("readings_%s.csv", c.clock.Now().UTC().Format("20060102T150405"))
		if err := writeCSV(filepath.Join(c.rawDir, name), readings); err != nil {
			return err
		}
		c.metrics.RawFilesWritten.Inc()
		c.metrics.ReadingsConsumed.Add(float64(len(readings)))
		c.logger.Info("raw batch landed", "file", name, "readings", len(readings))
	}

	for _, raw := range batch {
		if raw.Commit == nil {
			continue
		}
		if err := raw.Commit(ctx); err != nil {
			c.logger.Warn("commit offset failed", "error", err,
				"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
		}
	}
	return nil
}

// decodeReading flattens one JSON reading into CSV cells. Values may be
// strings or numbers; anything else is rejected so a bad producer cannot
// poison the raw directory.
func decodeReading(value []byte) (map[string]string, error) {
	var fields map[string]any
	if err := json.Unmarshal(value, &fields); err != nil {
		return nil, fmt.Errorf("decode reading: %w", err)
	}

	cells := make(map[string]string, len(fields))
	for k, v := range fields {
		switch t := v.(type) {
		case string:
			cells[k] = t
		case float64:
			cells[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
			cells[k] = ""
		default:
			return nil, fmt.Errorf("field %q has unsupported type %T", k, v)
		}
	}
	return cells, nil
}

// writeCSV lands readings under a sorted union header. Sorting keeps file
// contents independent of JSON key order.
func writeCSV(path string, readings []map[string]string) error {
	columnSet := make(map[string]bool)
	for _, r := range readings {
		for k := range r {
			columnSet[k] = true
		}
	}
	columns := make([]string, 0, len(columnSet))
	for k := range columnSet {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create raw file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return err
	}
	row := make([]string, len(columns))
	for _, r := range readings {
		for i, col := range columns {
			row[i] = r[col]
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
