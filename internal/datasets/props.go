package datasets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/kjstillabower/geo-data-maps/internal/geo"
)

// propString reads a property as text; numbers are formatted, nil is "".
func propString(p geojson.Properties, key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return geo.CleanAttribute(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// propFloat reads a numeric property, accepting numeric strings. ok is false
// when the property is missing or not a number.
func propFloat(p geojson.Properties, key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// attrFloat parses a shapefile or GeoPackage attribute, 0 when empty or invalid.
func attrFloat(attrs map[string]string, key string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(attrs[key]), 64)
	if err != nil {
		return 0
	}
	return f
}
