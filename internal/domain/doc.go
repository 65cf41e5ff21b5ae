// Package domain models multiparameter sonde casts from lake water-quality
// surveys and the site-grouping logic built on them.
//
// # Data Source
//
// Readings come from handheld YSI-style multiparameter sondes lowered from a
// boat. Each field crew exports one CSV per outing into the raw directory.
// Exports vary by instrument firmware: column sets differ between files, cells
// are blank where a probe was not fitted, and older instruments write Latin-1
// encoded text (the degree sign in "°C" is the usual casualty).
//
// # CSV Conventions
//
// Expected columns (an open set; extra or missing columns are tolerated):
//
//	Lat, Lon   decimal degrees, WGS-84; blank when the GPS had no fix
//	DEP m      depth of the reading in meters
//	Chl ug/L   chlorophyll
//	PC ug/L    phycocyanin
//	°C         water temperature
//	DO mg/L    dissolved oxygen
//	pH         pH
//	ORP mV     oxidation-reduction potential
//
// Rows that fail to parse are skipped; a reading without both Lat and Lon is
// kept in the record set but excluded from clustering.
//
// # Site Grouping
//
// A "site" is a physical sampling location the crew returns to across
// outings. GPS scatter means repeated casts at one site never share exact
// coordinates, so readings are grouped greedily: the first unassigned reading
// seeds a cluster that absorbs every reading within the distance threshold
// (default 50 m) of that seed, measured as great-circle distance. Grouping is
// seed-centered, not transitive — two members of one cluster may be farther
// apart than the threshold, and results depend on input order. The pairwise
// scan is O(n²) in the number of geotagged readings; that is the intended
// scalability ceiling, because any index-accelerated rewrite would change
// which reading seeds which cluster.
//
// # Representative Coordinates
//
// Each cluster is identified by the per-axis mode of its members' latitudes
// and longitudes, rounded to 5 decimal places (~1 m). The mode is used rather
// than the mean so that one long station visit anchors the site at the spot
// the crew actually held, not at a drift-weighted average. When several values
// are equally frequent the smallest wins, so representative coordinates are
// deterministic for a given input order. Two clusters can round to the same
// pair; the later write overwrites the earlier dataset.
package domain
