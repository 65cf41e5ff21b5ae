package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakewatch/sonde-site-service/internal/domain"
	"github.com/lakewatch/sonde-site-service/internal/observability"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func newCached(inner domain.Geocoder, maxEntries int) *CachedGeocoder {
	return NewCachedGeocoder(inner, maxEntries, observability.NewMetricsForTesting())
}

// --- tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{PlaceName: "Webber Pond"}}
	cached := newCached(inner, 10)

	r1, err := cached.ReverseGeocode(context.Background(), 44.12345, -69.54321)
	require.NoError(t, err)
	assert.Equal(t, "Webber Pond", r1.PlaceName)

	r2, err := cached.ReverseGeocode(context.Background(), 44.12345, -69.54321)
	require.NoError(t, err)
	assert.Equal(t, "Webber Pond", r2.PlaceName)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedGeocoder_DistinctCoordinatesMiss(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{PlaceName: "Webber Pond"}}
	cached := newCached(inner, 10)

	_, err := cached.ReverseGeocode(context.Background(), 44.1, -69.5)
	require.NoError(t, err)
	_, err = cached.ReverseGeocode(context.Background(), 44.2, -69.5)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := newCached(inner, 10)

	_, err := cached.ReverseGeocode(context.Background(), 44.1, -69.5)
	require.NoError(t, err)
	_, err = cached.ReverseGeocode(context.Background(), 44.1, -69.5)
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "empty results must be retried")
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("api down")}
	cached := newCached(inner, 10)

	_, err := cached.ReverseGeocode(context.Background(), 44.1, -69.5)
	require.Error(t, err)
	_, err = cached.ReverseGeocode(context.Background(), 44.1, -69.5)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := newLRUCache(2)
	a := domain.GeocodingResult{PlaceName: "A"}
	b := domain.GeocodingResult{PlaceName: "B"}
	c := domain.GeocodingResult{PlaceName: "C"}

	cache.put("a", a)
	cache.put("b", b)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := cache.get("a")
	require.True(t, ok)

	cache.put("c", c)

	_, ok = cache.get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	_, ok = cache.get("a")
	assert.True(t, ok)
	_, ok = cache.get("c")
	assert.True(t, ok)
}
