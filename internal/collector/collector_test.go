package collector_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakewatch/sonde-site-service/internal/adapter/csvfile"
	"github.com/lakewatch/sonde-site-service/internal/collector"
	"github.com/lakewatch/sonde-site-service/internal/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockExtractor serves its batches once, then blocks until cancellation.
type mockExtractor struct {
	batches [][]collector.RawReading
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int, _ time.Duration) ([]collector.RawReading, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

func reading(t *testing.T, value string, committed *atomic.Int64) collector.RawReading {
	t.Helper()
	return collector.RawReading{
		Value: []byte(value),
		Commit: func(context.Context) error {
			if committed != nil {
				committed.Add(1)
			}
			return nil
		},
	}
}

func TestRun_LandsBatchAsRawCSV(t *testing.T) {
	dir := t.TempDir()
	var committed atomic.Int64

	ext := &mockExtractor{batches: [][]collector.RawReading{{
		reading(t, `{"Lat":44.5,"Lon":-69.5,"DEP m":1.5,"pH":7.2}`, &committed),
		reading(t, `{"Lat":44.5,"Lon":-69.5,"DEP m":2,"pH":7.4}`, &committed),
	}}}

	c := collector.New(ext, dir, 10, 50*time.Millisecond, testLogger(), observability.NewMetricsForTesting())
	c.WithClock(clockwork.NewFakeClockAt(time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Run(ctx))

	path := filepath.Join(dir, "readings_20260601T120000.csv")
	set, err := csvfile.NewSiteReader(testLogger()).Load(path)
	require.NoError(t, err)

	// Union header in sorted order, values flattened from JSON.
	assert.Equal(t, []string{"DEP m", "Lat", "Lon", "pH"}, set.Columns)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, "44.5", set.Records[0]["Lat"])
	assert.Equal(t, "7.4", set.Records[1]["pH"])

	assert.Equal(t, int64(2), committed.Load(), "offsets committed after landing")
}

func TestRun_SkipsMalformedReadingButCommitsIt(t *testing.T) {
	dir := t.TempDir()
	var committed atomic.Int64

	ext := &mockExtractor{batches: [][]collector.RawReading{{
		reading(t, `not json`, &committed),
		reading(t, `{"Lat":44.5,"Lon":-69.5}`, &committed),
	}}}

	c := collector.New(ext, dir, 10, 50*time.Millisecond, testLogger(), observability.NewMetricsForTesting())
	c.WithClock(clockwork.NewFakeClockAt(time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Run(ctx))

	set, err := csvfile.NewSiteReader(testLogger()).Load(filepath.Join(dir, "readings_20260601T120000.csv"))
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len(), "malformed reading is dropped")
	assert.Equal(t, int64(2), committed.Load(), "malformed reading is still committed")
}

func TestRun_EmptyBatchWritesNothing(t *testing.T) {
	dir := t.TempDir()
	ext := &mockExtractor{batches: [][]collector.RawReading{{}}}

	c := collector.New(ext, dir, 10, 50*time.Millisecond, testLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, c.Run(ctx))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_StopsOnCancelledContext(t *testing.T) {
	ext := &mockExtractor{}
	c := collector.New(ext, t.TempDir(), 10, 50*time.Millisecond, testLogger(), observability.NewMetricsForTesting())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, c.Run(ctx))
}
