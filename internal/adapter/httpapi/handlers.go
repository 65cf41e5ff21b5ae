package httpapi

import (
	"net/http"
	"strconv"

	"github.com/lakewatch/sonde-site-service/internal/catalog"
	"github.com/lakewatch/sonde-site-service/internal/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady reports ready once a catalog is available. An empty catalog is
// still ready: zero persisted sites is a valid state for a fresh deployment.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.directory == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "site catalog not built yet",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleListSites serves the ordered, labeled site list.
func (s *Server) handleListSites(w http.ResponseWriter, _ *http.Request) {
	sites := s.directory.Sites()
	if sites == nil {
		sites = []catalog.Site{}
	}
	writeJSON(w, http.StatusOK, sites)
}

// handleDefaultSite serves the site shown before any map click: the
// southernmost one.
func (s *Server) handleDefaultSite(w http.ResponseWriter, _ *http.Request) {
	site, ok := s.directory.Default()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no sites available"})
		return
	}
	writeJSON(w, http.StatusOK, site)
}

// handleProfile serves the depth profile for one site and parameter.
// Site identity is the exact coordinate pair the visualization layer echoes
// back from the site list. Unknown sites and absent columns both yield an
// empty series with 200, never an error status: "nothing to render" is a
// normal answer here.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	parameter := q.Get("parameter")
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)

	if parameter == "" || errLat != nil || errLon != nil {
		s.metrics.ProfileRequests.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "lat, lon, and parameter query parameters are required",
		})
		return
	}

	site, ok := s.directory.Lookup(lat, lon)
	if !ok {
		s.logger.Warn("profile requested for unknown site", "lat", lat, "lon", lon)
		s.metrics.ProfileRequests.WithLabelValues("unknown_site").Inc()
		writeJSON(w, http.StatusOK, domain.ProfileSeries{Parameter: parameter, Points: []domain.ProfilePoint{}})
		return
	}

	dataset, err := s.loader.Load(site.Path)
	if err != nil {
		s.logger.Warn("site dataset unreadable", "label", site.Label, "path", site.Path, "error", err)
		s.metrics.ProfileRequests.WithLabelValues("unknown_site").Inc()
		writeJSON(w, http.StatusOK, domain.ProfileSeries{Parameter: parameter, Points: []domain.ProfilePoint{}})
		return
	}

	series := domain.BuildProfile(dataset, s.opts.DepthColumn, parameter)
	if series.Points == nil {
		series.Points = []domain.ProfilePoint{}
	}

	if series.Empty() {
		s.metrics.ProfileRequests.WithLabelValues("empty").Inc()
	} else {
		s.metrics.ProfileRequests.WithLabelValues("ok").Inc()
	}
	s.metrics.ProfilePoints.Observe(float64(len(series.Points)))

	writeJSON(w, http.StatusOK, series)
}

// handleParameters serves the display parameter names for the dropdown.
func (s *Server) handleParameters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"parameters": s.opts.Parameters})
}

// mapConfig is what the visualization layer needs to draw its base map.
type mapConfig struct {
	AccessToken string `json:"access_token"`
	Style       string `json:"style"`
	Zoom        int    `json:"zoom"`
}

// handleMapConfig hands the base-map tile settings to the visualization
// layer. The token is the same credential used for geocoding; Mapbox access
// tokens are public-facing (map tiles load in the browser).
func (s *Server) handleMapConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, mapConfig{
		AccessToken: s.opts.MapboxToken,
		Style:       "satellite",
		Zoom:        12,
	})
}
