package domain

import "sort"

// ProfilePoint is the mean of one parameter over every reading at one exact
// depth.
type ProfilePoint struct {
	Depth float64 `json:"depth"`
	Value float64 `json:"value"`
}

// ProfileSeries is a depth-ordered series of mean parameter values for one
// site. An empty Points slice means "nothing to render", not an error; the
// visualization layer shows a blank plot.
type ProfileSeries struct {
	Parameter string         `json:"parameter"`
	Points    []ProfilePoint `json:"points"`
}

// Empty reports whether the series has no points.
func (s ProfileSeries) Empty() bool { return len(s.Points) == 0 }

// BuildProfile aggregates a site's dataset into a profile series for one
// parameter.
//
// If the dataset never saw the parameter column or the depth column, the
// result is an explicitly-empty series. Otherwise readings are grouped by
// exact depth value (no binning), the arithmetic mean of the parameter is
// taken per group ignoring readings where the parameter is missing, groups
// with no usable values are dropped, and points are ordered by ascending
// depth. Readings without a parseable depth are ignored.
func BuildProfile(dataset RecordSet, depthColumn, parameter string) ProfileSeries {
	series := ProfileSeries{Parameter: parameter}

	if !dataset.HasColumn(parameter) || !dataset.HasColumn(depthColumn) {
		return series
	}

	type accum struct {
		sum   float64
		count int
	}
	groups := make(map[float64]*accum)

	for _, r := range dataset.Records {
		depth, ok := r.Float(depthColumn)
		if !ok {
			continue
		}
		value, ok := r.Float(parameter)
		if !ok {
			continue
		}
		g := groups[depth]
		if g == nil {
			g = &accum{}
			groups[depth] = g
		}
		g.sum += value
		g.count++
	}

	for depth, g := range groups {
		series.Points = append(series.Points, ProfilePoint{
			Depth: depth,
			Value: g.sum / float64(g.count),
		})
	}

	sort.Slice(series.Points, func(i, j int) bool {
		return series.Points[i].Depth < series.Points[j].Depth
	})

	return series
}
