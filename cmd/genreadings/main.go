// Command genreadings generates synthetic sonde profile CSVs for local
// development and test fixtures. Each generated file is one cast: a column
// header plus one row per half-meter depth step, with coordinates jittered a
// few meters around a site center so the split pass has something to cluster.
//
// Usage:
//
//	go run ./cmd/genreadings -out data/raw -sites 3 -casts 4 -seed 1
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
)

var header = []string{"Lat", "Lon", "DEP m", "°C", "Chl ug/L", "PC ug/L", "DO mg/L", "pH", "ORP mV"}

// Webber Pond, Vassalboro ME.
var centers = []struct{ lat, lon float64 }{
	{44.4712, -69.5663},
	{44.4775, -69.5601},
	{44.4838, -69.5712},
	{44.4650, -69.5580},
	{44.4901, -69.5655},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/raw", "output directory for generated CSVs")
	sites := flag.Int("sites", 3, "number of distinct sampling sites")
	casts := flag.Int("casts", 4, "number of casts per site")
	maxDepth := flag.Float64("max-depth", 8, "deepest reading in meters")
	seed := flag.Int64("seed", 1, "PRNG seed, fixed for reproducible fixtures")
	flag.Parse()

	if *sites < 1 || *sites > len(centers) {
		return fmt.Errorf("-sites must be between 1 and %d", len(centers))
	}
	if *casts < 1 {
		return fmt.Errorf("-casts must be positive")
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	rng := rand.New(rand.NewSource(*seed))

	total := 0
	for s := 0; s < *sites; s++ {
		for c := 0; c < *casts; c++ {
			name := fmt.Sprintf("profile_site%d_cast%02d.csv", s+1, c+1)
			rows := generateCast(rng, centers[s].lat, centers[s].lon, *maxDepth)
			if err := writeCSV(filepath.Join(*out, name), rows); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
			total += len(rows)
			log.Printf("%s: %d readings", name, len(rows))
		}
	}

	log.Printf("total: %d readings across %d files", total, *sites**casts)
	return nil
}

// generateCast produces one cast's rows. The boat drifts a few meters between
// readings, well inside the clustering threshold, so every row of a cast lands
// in the same site. Roughly one reading in twenty loses a probe value, to
// exercise missing-value handling downstream.
func generateCast(rng *rand.Rand, lat, lon, maxDepth float64) [][]string {
	// ~1e-5 degrees of latitude is about a meter.
	lat += (rng.Float64() - 0.5) * 2e-4
	lon += (rng.Float64() - 0.5) * 2e-4

	var rows [][]string
	for depth := 0.5; depth <= maxDepth; depth += 0.5 {
		lat += (rng.Float64() - 0.5) * 2e-5
		lon += (rng.Float64() - 0.5) * 2e-5

		// Surface-warm, thermocline around 4 m, cool below.
		temp := 24 - 10/(1+math.Exp(-(depth-4))) + rng.NormFloat64()*0.3
		do := 9.5 - depth*0.6 + rng.NormFloat64()*0.2
		chl := 3 + 4*math.Exp(-math.Pow(depth-2.5, 2)/2) + rng.NormFloat64()*0.4
		pc := chl*0.35 + rng.NormFloat64()*0.2
		ph := 7.8 - depth*0.08 + rng.NormFloat64()*0.05
		orp := 220 - depth*12 + rng.NormFloat64()*5

		row := []string{
			fmt.Sprintf("%.6f", lat),
			fmt.Sprintf("%.6f", lon),
			fmt.Sprintf("%.1f", depth),
			fmt.Sprintf("%.2f", temp),
			fmt.Sprintf("%.2f", math.Max(chl, 0)),
			fmt.Sprintf("%.2f", math.Max(pc, 0)),
			fmt.Sprintf("%.2f", math.Max(do, 0)),
			fmt.Sprintf("%.2f", ph),
			fmt.Sprintf("%.1f", orp),
		}
		if rng.Intn(20) == 0 {
			row[3+rng.Intn(6)] = ""
		}
		rows = append(rows, row)
	}
	return rows
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
