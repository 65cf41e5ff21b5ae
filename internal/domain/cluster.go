package domain

import (
	"fmt"
	"math"
)

// DefaultDistanceThresholdM is the grouping radius used when none is configured.
const DefaultDistanceThresholdM = 50

// Cluster is one greedy grouping of geotagged records: every member lies
// within the threshold of the seed (the first member), though members may be
// farther than that from each other. Representative is the per-axis mode of
// the member coordinates, rounded to 5 decimals; it need not equal any
// member's actual position.
type Cluster struct {
	Seed           Geo
	Representative Geo
	Records        []Record
}

// DistanceFunc measures the surface distance between two coordinates in meters.
type DistanceFunc func(a, b Geo) float64

// Clusterer partitions a cleaned record set into seed-centered clusters.
type Clusterer struct {
	thresholdM float64
	distance   DistanceFunc
}

// NewClusterer creates a Clusterer with the given threshold in meters.
// A zero or negative threshold falls back to the default. Distance defaults
// to Haversine; override with WithDistance for tests.
func NewClusterer(thresholdM float64) *Clusterer {
	if thresholdM <= 0 {
		thresholdM = DefaultDistanceThresholdM
	}
	return &Clusterer{thresholdM: thresholdM, distance: Haversine}
}

// WithDistance replaces the distance function and returns the receiver.
func (c *Clusterer) WithDistance(fn DistanceFunc) *Clusterer {
	c.distance = fn
	return c
}

// Partition groups the cleaned record set into clusters.
//
// The sweep is greedy and order-dependent: the first unassigned record seeds
// a cluster, every unassigned record within thresholdM (inclusive) of that
// seed joins it, and the sweep repeats from the next unassigned record until
// none remain. The emitted clusters are disjoint and their union is exactly
// the input. Records without a parseable coordinate are skipped; callers are
// expected to pass a Clean() view.
func (c *Clusterer) Partition(cleaned RecordSet) []Cluster {
	type located struct {
		record Record
		geo    Geo
	}

	points := make([]located, 0, len(cleaned.Records))
	for _, r := range cleaned.Records {
		geo, ok := r.Geo()
		if !ok {
			continue
		}
		points = append(points, located{record: r, geo: geo})
	}

	// Unassigned indices in input order; an explicit index partition rather
	// than shrinking the slice under the sweep.
	unassigned := make([]int, len(points))
	for i := range points {
		unassigned[i] = i
	}

	var clusters []Cluster
	for len(unassigned) > 0 {
		seed := points[unassigned[0]].geo

		var members []int
		var rest []int
		for _, idx := range unassigned {
			if c.distance(seed, points[idx].geo) <= c.thresholdM {
				members = append(members, idx)
			} else {
				rest = append(rest, idx)
			}
		}
		unassigned = rest

		cluster := Cluster{Seed: seed}
		lats := make([]float64, 0, len(members))
		lons := make([]float64, 0, len(members))
		for _, idx := range members {
			cluster.Records = append(cluster.Records, points[idx].record)
			lats = append(lats, points[idx].geo.Lat)
			lons = append(lons, points[idx].geo.Lon)
		}
		cluster.Representative = Geo{
			Lat: round5(mode(lats)),
			Lon: round5(mode(lons)),
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}

// mode returns the most frequent value; when several values are equally
// frequent the smallest wins, so the result is independent of map iteration
// order. Callers guarantee values is non-empty.
func mode(values []float64) float64 {
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best := values[0]
	bestCount := 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best = v
			bestCount = n
		}
	}
	return best
}

// round5 rounds to 5 decimal places, roughly meter precision at the equator.
func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

// SiteFilename renders a representative coordinate as the persisted dataset
// name, e.g. "44.12345Lat_-69.54321Lon.csv". Latitude and longitude always
// carry exactly 5 fractional digits so the catalog can parse them back.
func SiteFilename(rep Geo) string {
	return fmt.Sprintf("%.5fLat_%.5fLon.csv", rep.Lat, rep.Lon)
}
