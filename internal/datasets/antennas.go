package datasets

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/kjstillabower/geo-data-maps/internal/geo"
	"github.com/kjstillabower/geo-data-maps/internal/models"
)

// PowerCodes maps the BAKOM power class to a marker weight.
var PowerCodes = map[string]int{
	"Sehr Klein": 2,
	"Klein":      3,
	"Mittel":     5,
	"Gross":      10,
}

// Antennas returns the 5G antenna sites. The preprocessed WGS84 file is
// preferred; the raw BAKOM GeoJSON is reprojected otherwise.
func (s *Store) Antennas(ctx context.Context) ([]models.Antenna, error) {
	return loadStatic(s, "antennas", func() ([]models.Antenna, error) {
		path := s.path(s.opts.Files.AntennasPrep)
		if !exists(path) {
			path = s.path(s.opts.Files.Antennas)
		}
		fc, err := readGeoJSON(path)
		if err != nil {
			return nil, err
		}
		out := AntennasFromFeatures(fc)
		recordCount("antennas", len(out))
		return out, nil
	})
}

// MobileAntennas returns the 3G/4G/5G antenna sites of the mobile network dataset.
func (s *Store) MobileAntennas(ctx context.Context) ([]models.Antenna, error) {
	return loadStatic(s, "mobile", func() ([]models.Antenna, error) {
		fc, err := readGeoJSON(s.path(s.opts.Files.Mobile))
		if err != nil {
			return nil, err
		}
		out := AntennasFromFeatures(fc)
		recordCount("mobile", len(out))
		return out, nil
	})
}

func readGeoJSON(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geo.DecodeWGS84(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fc, nil
}

// AntennasFromFeatures converts WGS84 point features. The power weight comes
// from power_int or power_code when present, otherwise from the German power
// class (powercode_de or power_de). Non-point features are skipped.
func AntennasFromFeatures(fc *geojson.FeatureCollection) []models.Antenna {
	out := make([]models.Antenna, 0, len(fc.Features))
	for _, f := range fc.Features {
		p, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		power := propString(f.Properties, "powercode_de")
		if power == "" {
			power = propString(f.Properties, "power_de")
		}
		code, ok := propFloat(f.Properties, "power_int")
		if !ok {
			code, ok = propFloat(f.Properties, "power_code")
		}
		if !ok {
			code = float64(PowerCodes[power])
		}
		out = append(out, models.Antenna{
			Lat:       p.Lat(),
			Lon:       p.Lon(),
			PowerCode: int(code),
			Power:     power,
			Techno:    propString(f.Properties, "techno_de"),
			Type:      propString(f.Properties, "typ_de"),
		})
	}
	return out
}
