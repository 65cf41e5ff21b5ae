package httpapi_test

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakewatch/sonde-site-service/internal/adapter/csvfile"
	"github.com/lakewatch/sonde-site-service/internal/adapter/httpapi"
	"github.com/lakewatch/sonde-site-service/internal/catalog"
	"github.com/lakewatch/sonde-site-service/internal/domain"
	"github.com/lakewatch/sonde-site-service/internal/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer builds a server over a real sites directory containing two
// persisted datasets, exercising catalog, reader, and handlers together.
func newTestServer(t *testing.T) *httpapi.Server {
	t.Helper()
	dir := t.TempDir()

	south := "44.10000Lat_-69.60000Lon.csv"
	north := "44.90000Lat_-69.50000Lon.csv"
	require.NoError(t, os.WriteFile(filepath.Join(dir, south),
		[]byte("DEP m,pH,DO mg/L\n5,10,8.0\n5,20,8.2\n1,7.0,9.1\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, north),
		[]byte("DEP m,ORP mV\n1,150\n"), 0o644))

	metrics := observability.NewMetricsForTesting()
	cat, err := catalog.Build(dir, testLogger(), metrics)
	require.NoError(t, err)

	return httpapi.NewServer(":0", cat, csvfile.NewSiteReader(testLogger()), httpapi.Options{
		DepthColumn: "DEP m",
		Parameters:  []string{"pH", "DO mg/L"},
		MapboxToken: "pk.test-token",
	}, testLogger(), metrics)
}

func doGet(t *testing.T, srv *httpapi.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := doGet(t, newTestServer(t), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyz(t *testing.T) {
	rec := doGet(t, newTestServer(t), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListSites_OrderedAndLabeled(t *testing.T) {
	rec := doGet(t, newTestServer(t), "/api/v1/sites")
	require.Equal(t, http.StatusOK, rec.Code)

	var sites []catalog.Site
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sites))
	require.Len(t, sites, 2)

	assert.Equal(t, "Sample Site 1", sites[0].Label)
	assert.Equal(t, 44.1, sites[0].Latitude)
	assert.Equal(t, "Sample Site 2", sites[1].Label)
	assert.Equal(t, 44.9, sites[1].Latitude)
}

func TestDefaultSite(t *testing.T) {
	rec := doGet(t, newTestServer(t), "/api/v1/sites/default")
	require.Equal(t, http.StatusOK, rec.Code)

	var site catalog.Site
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &site))
	assert.Equal(t, "Sample Site 1", site.Label)
}

func TestProfile_AveragesByDepth(t *testing.T) {
	rec := doGet(t, newTestServer(t), "/api/v1/profile?lat=44.1&lon=-69.6&parameter=pH")
	require.Equal(t, http.StatusOK, rec.Code)

	var series domain.ProfileSeries
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))

	assert.Equal(t, "pH", series.Parameter)
	require.Len(t, series.Points, 2)
	assert.Equal(t, domain.ProfilePoint{Depth: 1, Value: 7.0}, series.Points[0])
	assert.Equal(t, domain.ProfilePoint{Depth: 5, Value: 15.0}, series.Points[1])
}

func TestProfile_MissingParameterYieldsEmptySeries(t *testing.T) {
	rec := doGet(t, newTestServer(t), "/api/v1/profile?lat=44.9&lon=-69.5&parameter=pH")
	require.Equal(t, http.StatusOK, rec.Code, "missing column is not an error")

	var series domain.ProfileSeries
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	assert.Empty(t, series.Points)
}

func TestProfile_UnknownSiteYieldsEmptySeries(t *testing.T) {
	rec := doGet(t, newTestServer(t), "/api/v1/profile?lat=10.0&lon=10.0&parameter=pH")
	require.Equal(t, http.StatusOK, rec.Code)

	var series domain.ProfileSeries
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	assert.Empty(t, series.Points)
}

func TestProfile_BadRequest(t *testing.T) {
	for _, path := range []string{
		"/api/v1/profile",
		"/api/v1/profile?lat=44.1&lon=-69.6",
		"/api/v1/profile?lat=abc&lon=-69.6&parameter=pH",
	} {
		rec := doGet(t, newTestServer(t), path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestParameters(t *testing.T) {
	rec := doGet(t, newTestServer(t), "/api/v1/parameters")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"pH", "DO mg/L"}, body["parameters"])
}

func TestMapConfig(t *testing.T) {
	rec := doGet(t, newTestServer(t), "/api/v1/mapconfig")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "pk.test-token", body["access_token"])
	assert.Equal(t, "satellite", body["style"])
}

func TestEmptyCatalog(t *testing.T) {
	dir := t.TempDir()
	metrics := observability.NewMetricsForTesting()
	cat, err := catalog.Build(dir, testLogger(), metrics)
	require.NoError(t, err)

	srv := httpapi.NewServer(":0", cat, csvfile.NewSiteReader(testLogger()), httpapi.Options{}, testLogger(), metrics)

	rec := doGet(t, srv, "/api/v1/sites")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = doGet(t, srv, "/api/v1/sites/default")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfile_LookupUsesExactCatalogCoordinates(t *testing.T) {
	srv := newTestServer(t)

	// The coordinates the list endpoint returns must round-trip into a
	// working profile lookup.
	rec := doGet(t, srv, "/api/v1/sites")
	var sites []catalog.Site
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sites))
	require.NotEmpty(t, sites)

	path := fmt.Sprintf("/api/v1/profile?lat=%v&lon=%v&parameter=pH", sites[0].Latitude, sites[0].Longitude)
	rec = doGet(t, srv, path)
	require.Equal(t, http.StatusOK, rec.Code)

	var series domain.ProfileSeries
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	assert.NotEmpty(t, series.Points)
}
