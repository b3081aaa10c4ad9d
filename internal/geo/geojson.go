package geo

import (
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
)

// DecodeFeatureCollection parses GeoJSON and returns the collection with its
// declared or guessed CRS. The legacy "crs" member wins when present;
// otherwise the magnitude of the first coordinate decides.
func DecodeFeatureCollection(data []byte) (*geojson.FeatureCollection, CRS, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, WGS84, fmt.Errorf("decode geojson: %w", err)
	}
	return fc, DetectCRS(fc), nil
}

// DetectCRS reads crs.properties.name, falling back to GuessCRS.
func DetectCRS(fc *geojson.FeatureCollection) CRS {
	if crs, ok := fc.ExtraMembers["crs"].(map[string]interface{}); ok {
		if props, ok := crs["properties"].(map[string]interface{}); ok {
			if name, ok := props["name"].(string); ok {
				if c, ok := ParseCRS(name); ok {
					return c
				}
			}
		}
	}
	for _, f := range fc.Features {
		if p, ok := firstPoint(f.Geometry); ok {
			return GuessCRS(p)
		}
	}
	return WGS84
}

// ReadFeatureCollection reads a GeoJSON file and reprojects it to WGS84.
func ReadFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeWGS84(data)
}

// DecodeWGS84 parses GeoJSON and reprojects every feature to WGS84. The
// legacy crs member is dropped since the output is always WGS84.
func DecodeWGS84(data []byte) (*geojson.FeatureCollection, error) {
	fc, crs, err := DecodeFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	if crs != WGS84 {
		for _, f := range fc.Features {
			f.Geometry = ToWGS84(f.Geometry, crs)
		}
	}
	delete(fc.ExtraMembers, "crs")
	return fc, nil
}

// WriteFeatureCollection writes fc as GeoJSON to path.
func WriteFeatureCollection(path string, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
