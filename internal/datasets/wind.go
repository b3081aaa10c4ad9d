package datasets

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/kjstillabower/geo-data-maps/internal/geo"
	"github.com/kjstillabower/geo-data-maps/internal/models"
)

// Turbines returns the wind energy installations from the SFOE CSV.
func (s *Store) Turbines(ctx context.Context) ([]models.Turbine, error) {
	return loadStatic(s, "wind", func() ([]models.Turbine, error) {
		f, err := os.Open(s.path(s.opts.Files.Wind))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		rows, err := geo.ReadCSV(f)
		if err != nil {
			return nil, err
		}
		out, err := TurbinesFromRows(rows)
		if err != nil {
			return nil, err
		}
		recordCount("wind", len(out))
		return out, nil
	})
}

// TurbinesFromRows converts CSV rows with LV95 x/y columns. Rows without
// coordinates are skipped; diameter and rated power are truncated to integers.
func TurbinesFromRows(rows []map[string]string) ([]models.Turbine, error) {
	out := make([]models.Turbine, 0, len(rows))
	for i, row := range rows {
		x, errX := strconv.ParseFloat(row["x"], 64)
		y, errY := strconv.ParseFloat(row["y"], 64)
		if errX != nil || errY != nil {
			continue
		}
		p := orb.Point{x, y}
		crs := geo.GuessCRS(p)
		wgs := geo.ToWGS84(p, crs).(orb.Point)
		power, err := parseIntField(row["ratedPower"])
		if err != nil {
			return nil, fmt.Errorf("row %d ratedPower: %w", i+1, err)
		}
		diameter, err := parseIntField(row["diameter"])
		if err != nil {
			return nil, fmt.Errorf("row %d diameter: %w", i+1, err)
		}
		out = append(out, models.Turbine{
			Lat:                wgs.Lat(),
			Lon:                wgs.Lon(),
			Manufacturer:       strings.ReplaceAll(row["manufacturer"], "Ã¼", "ü"),
			Model:              row["model"],
			RatedPower:         power,
			Diameter:           diameter,
			YearOfConstruction: row["yearOfConstruction"],
		})
	}
	return out, nil
}

// parseIntField accepts "", "2300" and "2300.0"; empty is 0.
func parseIntField(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(math.Trunc(f)), nil
}

// TotalMW sums rated power (kW) and formats it like "12.345 mW".
func TotalMW(turbines []models.Turbine) string {
	var kw int
	for _, t := range turbines {
		kw += t.RatedPower
	}
	return fmt.Sprintf("%.3f mW", float64(kw)/1000)
}
