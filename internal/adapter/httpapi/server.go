// Package httpapi exposes the site catalog and profile aggregation to the
// external visualization layer. The API is read-only and stateless: the map
// UI owns "current selection", this layer only answers listSites and
// getProfile style requests. No error crosses this boundary as a failure
// status for data conditions — unknown sites and missing parameters come
// back as empty series the UI can render as a blank plot.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lakewatch/sonde-site-service/internal/catalog"
	"github.com/lakewatch/sonde-site-service/internal/domain"
	"github.com/lakewatch/sonde-site-service/internal/observability"
)

// SiteDirectory is the catalog view the API serves.
type SiteDirectory interface {
	Sites() []catalog.Site
	Lookup(lat, lon float64) (catalog.Site, bool)
	Default() (catalog.Site, bool)
}

// DatasetLoader re-loads a site's persisted dataset for aggregation.
type DatasetLoader interface {
	Load(path string) (domain.RecordSet, error)
}

// Options carries the request-independent settings the handlers need.
type Options struct {
	DepthColumn string
	Parameters  []string
	MapboxToken string
}

// Server exposes the site/profile API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	directory  SiteDirectory
	loader     DatasetLoader
	opts       Options
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewServer creates the API server.
func NewServer(addr string, directory SiteDirectory, loader DatasetLoader, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Server {
	if opts.DepthColumn == "" {
		opts.DepthColumn = domain.DefaultDepthColumn
	}

	s := &Server{
		directory: directory,
		loader:    loader,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/sites", s.handleListSites).Methods(http.MethodGet)
	api.HandleFunc("/sites/default", s.handleDefaultSite).Methods(http.MethodGet)
	api.HandleFunc("/profile", s.handleProfile).Methods(http.MethodGet)
	api.HandleFunc("/parameters", s.handleParameters).Methods(http.MethodGet)
	api.HandleFunc("/mapconfig", s.handleMapConfig).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
