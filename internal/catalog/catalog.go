// Package catalog rebuilds the labeled site list from persisted site
// datasets. The filename is the source of truth: sites are re-discovered by
// parsing coordinates back out of each dataset's name, never by re-reading
// the data inside.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/lakewatch/sonde-site-service/internal/domain"
	"github.com/lakewatch/sonde-site-service/internal/observability"
)

// filenameRe matches persisted site datasets: a signed decimal latitude and
// longitude, e.g. "44.12345Lat_-69.54321Lon.csv". Anything else in the
// directory is ignored.
var filenameRe = regexp.MustCompile(`^(-?\d+\.\d+)Lat_(-?\d+\.\d+)Lon\.csv$`)

// Site is one re-discovered sampling site: parsed coordinates, the dataset
// path, the rank-derived label, and an optional geocoded place name.
type Site struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label"`
	PlaceName string  `json:"place_name,omitempty"`

	// Path locates the persisted dataset; not part of the API payload.
	Path string `json:"-"`
}

// Catalog is the ordered, labeled site list rebuilt from one scan of the
// sites directory. After Build (and optional Annotate at startup) it is
// read-only and safe for concurrent readers.
type Catalog struct {
	sites   []Site
	byCoord map[domain.Geo]int
}

// Build scans the sites directory and derives the catalog.
//
// Filenames that do not match the site pattern are skipped silently. Sites
// are sorted ascending by latitude (south to north); ties fall back to
// longitude and then filename so labels never depend on filesystem listing
// order. Labels are "Sample Site <k>" with k the 1-based rank.
func Build(dir string, logger *slog.Logger, metrics *observability.Metrics) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read sites dir: %w", err)
	}

	var sites []Site
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := filenameRe.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		lat, errLat := strconv.ParseFloat(m[1], 64)
		lon, errLon := strconv.ParseFloat(m[2], 64)
		if errLat != nil || errLon != nil {
			continue
		}
		sites = append(sites, Site{
			Latitude:  lat,
			Longitude: lon,
			Path:      filepath.Join(dir, e.Name()),
		})
	}

	sort.Slice(sites, func(i, j int) bool {
		if sites[i].Latitude != sites[j].Latitude {
			return sites[i].Latitude < sites[j].Latitude
		}
		if sites[i].Longitude != sites[j].Longitude {
			return sites[i].Longitude < sites[j].Longitude
		}
		return sites[i].Path < sites[j].Path
	})

	byCoord := make(map[domain.Geo]int, len(sites))
	for i := range sites {
		sites[i].Label = fmt.Sprintf("Sample Site %d", i+1)
		byCoord[domain.Geo{Lat: sites[i].Latitude, Lon: sites[i].Longitude}] = i
	}

	if metrics != nil {
		metrics.CatalogSites.Set(float64(len(sites)))
	}
	logger.Info("site catalog built", "dir", dir, "sites", len(sites))

	return &Catalog{sites: sites, byCoord: byCoord}, nil
}

// Sites returns the full list in label order.
func (c *Catalog) Sites() []Site {
	out := make([]Site, len(c.sites))
	copy(out, c.sites)
	return out
}

// Lookup finds a site by its exact coordinate pair, the identity the
// visualization layer echoes back from map clicks.
func (c *Catalog) Lookup(lat, lon float64) (Site, bool) {
	i, ok := c.byCoord[domain.Geo{Lat: lat, Lon: lon}]
	if !ok {
		return Site{}, false
	}
	return c.sites[i], true
}

// Default returns the site shown before any explicit selection: the
// southernmost, i.e. "Sample Site 1". ok is false for an empty catalog.
func (c *Catalog) Default() (Site, bool) {
	if len(c.sites) == 0 {
		return Site{}, false
	}
	return c.sites[0], true
}

// Len returns the number of sites.
func (c *Catalog) Len() int { return len(c.sites) }

// Annotate resolves a place name for every site through the geocoder.
// Failures degrade gracefully: the site keeps an empty place name and the
// scan continues. A nil geocoder is a no-op.
func (c *Catalog) Annotate(ctx context.Context, geocoder domain.Geocoder, logger *slog.Logger) {
	if geocoder == nil {
		return
	}
	for i := range c.sites {
		result, err := geocoder.ReverseGeocode(ctx, c.sites[i].Latitude, c.sites[i].Longitude)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"label", c.sites[i].Label,
				"lat", c.sites[i].Latitude,
				"lon", c.sites[i].Longitude,
				"error", err,
			)
			continue
		}
		c.sites[i].PlaceName = result.PlaceName
	}
}
