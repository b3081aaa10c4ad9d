package geo

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// CRS identifies the coordinate reference systems found in Swiss open data.
type CRS int

const (
	WGS84 CRS = iota // EPSG:4326, lon/lat degrees
	LV95             // EPSG:2056, CH1903+ east/north metres
	LV03             // EPSG:21781, CH1903 east/north metres
)

func (c CRS) String() string {
	switch c {
	case WGS84:
		return "EPSG:4326"
	case LV95:
		return "EPSG:2056"
	case LV03:
		return "EPSG:21781"
	default:
		return fmt.Sprintf("CRS(%d)", int(c))
	}
}

// ParseCRS maps a CRS name ("EPSG:2056", "urn:ogc:def:crs:EPSG::21781",
// "urn:ogc:def:crs:OGC:1.3:CRS84") to a CRS.
func ParseCRS(name string) (CRS, bool) {
	n := strings.ToUpper(name)
	switch {
	case strings.HasSuffix(n, "2056"):
		return LV95, true
	case strings.HasSuffix(n, "21781"):
		return LV03, true
	case strings.HasSuffix(n, "4326"), strings.HasSuffix(n, "CRS84"):
		return WGS84, true
	}
	return WGS84, false
}

// GuessCRS infers the CRS from one coordinate. LV95 eastings start at
// 2,480,000, LV03 eastings at 480,000; degrees never exceed 180.
func GuessCRS(p orb.Point) CRS {
	switch {
	case p[0] > 1_000_000:
		return LV95
	case p[0] > 1_000:
		return LV03
	default:
		return WGS84
	}
}

// LV95ToWGS84 converts CH1903+ easting/northing to WGS84 using the swisstopo
// approximation (accuracy about one metre).
func LV95ToWGS84(p orb.Point) orb.Point {
	y := (p[0] - 2_600_000) / 1_000_000
	x := (p[1] - 1_200_000) / 1_000_000

	lon := 2.6779094 +
		4.728982*y +
		0.791484*y*x +
		0.1306*y*x*x -
		0.0436*y*y*y
	lat := 16.9023892 +
		3.238272*x -
		0.270978*y*y -
		0.002528*x*x -
		0.0447*y*y*x -
		0.0140*x*x*x

	return orb.Point{lon * 100 / 36, lat * 100 / 36}
}

// LV03ToWGS84 converts CH1903 easting/northing to WGS84.
func LV03ToWGS84(p orb.Point) orb.Point {
	return LV95ToWGS84(orb.Point{p[0] + 2_000_000, p[1] + 1_000_000})
}

// Projection returns the orb projection from c to WGS84.
func Projection(c CRS) orb.Projection {
	switch c {
	case LV95:
		return LV95ToWGS84
	case LV03:
		return LV03ToWGS84
	default:
		return func(p orb.Point) orb.Point { return p }
	}
}

// ToWGS84 reprojects g in place from c and returns it.
func ToWGS84(g orb.Geometry, c CRS) orb.Geometry {
	if g == nil || c == WGS84 {
		return g
	}
	return project.Geometry(g, Projection(c))
}

// firstPoint returns any coordinate of g, used for CRS guessing.
func firstPoint(g orb.Geometry) (orb.Point, bool) {
	switch v := g.(type) {
	case orb.Point:
		return v, true
	case orb.MultiPoint:
		if len(v) > 0 {
			return v[0], true
		}
	case orb.LineString:
		if len(v) > 0 {
			return v[0], true
		}
	case orb.MultiLineString:
		for _, ls := range v {
			if len(ls) > 0 {
				return ls[0], true
			}
		}
	case orb.Ring:
		if len(v) > 0 {
			return v[0], true
		}
	case orb.Polygon:
		if len(v) > 0 && len(v[0]) > 0 {
			return v[0][0], true
		}
	case orb.MultiPolygon:
		for _, poly := range v {
			if len(poly) > 0 && len(poly[0]) > 0 {
				return poly[0][0], true
			}
		}
	case orb.Collection:
		for _, c := range v {
			if p, ok := firstPoint(c); ok {
				return p, true
			}
		}
	}
	return orb.Point{}, false
}
