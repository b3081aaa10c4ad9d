package geo

import (
	"fmt"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// Feature is a geometry with its string attributes, the common shape of
// shapefile and GeoPackage rows.
type Feature struct {
	Geometry   orb.Geometry
	Attributes map[string]string
}

// ReadShapefile reads every shape and its DBF attributes from path. Polygon
// and PolygonZ records become orb polygons (Z dropped); point records become
// orb points. Coordinates are returned as stored; callers reproject.
func ReadShapefile(path string) ([]Feature, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer reader.Close()

	fields := reader.Fields()
	var features []Feature
	for reader.Next() {
		n, shape := reader.Shape()

		attrs := make(map[string]string, len(fields))
		for k, f := range fields {
			attrs[f.String()] = CleanAttribute(reader.ReadAttribute(n, k))
		}

		g, err := shapeGeometry(shape)
		if err != nil {
			return nil, fmt.Errorf("shapefile %s record %d: %w", path, n, err)
		}
		features = append(features, Feature{Geometry: g, Attributes: attrs})
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	return features, nil
}

func shapeGeometry(shape shp.Shape) (orb.Geometry, error) {
	switch s := shape.(type) {
	case *shp.Polygon:
		return buildPolygons(s.Parts, s.Points), nil
	case *shp.PolygonZ:
		return buildPolygons(s.Parts, s.Points), nil
	case *shp.Point:
		return orb.Point{s.X, s.Y}, nil
	case *shp.PointZ:
		return orb.Point{s.X, s.Y}, nil
	case *shp.Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported shape type %T", shape)
	}
}

// buildPolygons splits the flat point list into rings at parts and groups
// them into polygons. Shapefiles store outer rings clockwise and holes
// counter-clockwise; a hole belongs to the outer ring before it.
func buildPolygons(parts []int32, points []shp.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}
		ring := make(orb.Ring, 0, end-start)
		for _, p := range points[start:end] {
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		if ring.Orientation() == orb.CCW && len(mp) > 0 {
			last := len(mp) - 1
			mp[last] = append(mp[last], ring)
			continue
		}
		mp = append(mp, orb.Polygon{ring})
	}
	if len(mp) == 1 {
		return mp[0]
	}
	return mp
}
