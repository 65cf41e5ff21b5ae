package domain

import (
	"strconv"
	"strings"
)

// Column names with fixed meaning. Everything else in a record set is an
// instrument parameter column.
const (
	ColumnLat = "Lat"
	ColumnLon = "Lon"

	// DefaultDepthColumn is the depth column written by YSI-style sondes.
	DefaultDepthColumn = "DEP m"
)

// Record is one sensor observation: raw cell values keyed by column name.
// Cells are kept as the strings read from the CSV; numeric interpretation
// happens at use sites via Float. A column absent from the map, or present
// with an empty cell, is a missing value.
type Record map[string]string

// Float parses the named cell as a float64. The second return is false when
// the column is absent, blank, or not numeric.
func (r Record) Float(column string) (float64, bool) {
	raw, ok := r[column]
	if !ok {
		return 0, false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Geo returns the record's coordinate pair. The second return is false when
// either axis is missing or unparseable.
func (r Record) Geo() (Geo, bool) {
	lat, ok := r.Float(ColumnLat)
	if !ok {
		return Geo{}, false
	}
	lon, ok := r.Float(ColumnLon)
	if !ok {
		return Geo{}, false
	}
	return Geo{Lat: lat, Lon: lon}, true
}

// RecordSet is an ordered collection of records from one ingest pass plus
// the union of column names seen, in first-appearance order. Order matters:
// clustering seeds are chosen by position.
type RecordSet struct {
	Columns []string
	Records []Record
}

// HasColumn reports whether the column appeared in any loaded header.
func (rs RecordSet) HasColumn(name string) bool {
	for _, c := range rs.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MergeColumns appends any columns not yet present, preserving the order in
// which headers were first seen across files.
func (rs *RecordSet) MergeColumns(columns []string) {
	for _, c := range columns {
		if !rs.HasColumn(c) {
			rs.Columns = append(rs.Columns, c)
		}
	}
}

// Clean returns the view of the record set that clustering operates on:
// only records carrying a parseable Lat and Lon, in their original order.
// Column metadata is shared with the receiver.
func (rs RecordSet) Clean() RecordSet {
	cleaned := RecordSet{Columns: rs.Columns}
	for _, r := range rs.Records {
		if _, ok := r.Geo(); ok {
			cleaned.Records = append(cleaned.Records, r)
		}
	}
	return cleaned
}

// Len returns the number of records.
func (rs RecordSet) Len() int { return len(rs.Records) }
