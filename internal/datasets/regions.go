package datasets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/geo-data-maps/internal/geo"
	"github.com/kjstillabower/geo-data-maps/internal/models"
)

// RegionLevel is an administrative subdivision of Switzerland.
type RegionLevel string

const (
	Kantone   RegionLevel = "Kantone"
	Bezirke   RegionLevel = "Bezirke"
	Gemeinden RegionLevel = "Gemeinden"
)

// RegionLevels lists the levels from coarsest to finest.
var RegionLevels = []RegionLevel{Kantone, Bezirke, Gemeinden}

// ParseRegionLevel returns the level named s.
func ParseRegionLevel(s string) (RegionLevel, bool) {
	for _, l := range RegionLevels {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// AreaField is the swissBOUNDARIES3D attribute holding the area in hectares.
func (l RegionLevel) AreaField() string {
	switch l {
	case Bezirke:
		return "BEZIRKSFLA"
	case Gemeinden:
		return "GEM_FLAECH"
	default:
		return "KANTONSFLA"
	}
}

func (s *Store) regionFiles(l RegionLevel) (prepared, shapefile string) {
	prepared, shapefile = s.opts.Files.Region(l)
	return s.path(prepared), s.path(shapefile)
}

// Regions returns the polygons of level with population, area and DICHTE.
// Decoded levels stay in a bounded LRU.
func (s *Store) Regions(ctx context.Context, level RegionLevel) ([]models.Region, error) {
	if _, ok := ParseRegionLevel(string(level)); !ok {
		return nil, fmt.Errorf("unknown region level %q", level)
	}
	if rs, ok := s.regions.Get(level); ok {
		return rs, nil
	}
	v, err, _ := s.group.Do("regions:"+string(level), func() (any, error) {
		start := time.Now()
		rs, err := s.loadRegions(level)
		if err != nil {
			return nil, err
		}
		s.regions.Add(level, rs)
		recordCount("regions_"+string(level), len(rs))
		s.log(ctx).Info("regions loaded", zap.String("level", string(level)), zap.Int("count", len(rs)), zap.Duration("duration", time.Since(start)))
		return rs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", level, err)
	}
	return v.([]models.Region), nil
}

func (s *Store) loadRegions(level RegionLevel) ([]models.Region, error) {
	prepared, shapefile := s.regionFiles(level)
	if exists(prepared) {
		fc, err := readGeoJSON(prepared)
		if err != nil {
			return nil, err
		}
		out := make([]models.Region, 0, len(fc.Features))
		for _, f := range fc.Features {
			pop, _ := propFloat(f.Properties, "EINWOHNERZ")
			area, _ := propFloat(f.Properties, level.AreaField())
			r := models.Region{
				Name:       propString(f.Properties, "NAME"),
				Population: pop,
				Area:       area,
				Geometry:   f.Geometry,
			}
			if d, ok := propFloat(f.Properties, "DICHTE"); ok {
				r.Density = d
			} else {
				r.Density = Dichte(pop, area)
			}
			out = append(out, r)
		}
		return out, nil
	}

	features, err := geo.ReadShapefile(shapefile)
	if err != nil {
		return nil, err
	}
	return RegionsFromShapes(features, level), nil
}

// RegionsFromShapes converts swissBOUNDARIES3D shapefile features (LV95) to
// WGS84 regions with repaired names.
func RegionsFromShapes(features []geo.Feature, level RegionLevel) []models.Region {
	out := make([]models.Region, 0, len(features))
	for _, f := range features {
		if f.Geometry == nil {
			continue
		}
		pop := attrFloat(f.Attributes, "EINWOHNERZ")
		area := attrFloat(f.Attributes, level.AreaField())
		out = append(out, models.Region{
			Name:       geo.FixMojibake(f.Attributes["NAME"]),
			Population: pop,
			Area:       area,
			Density:    Dichte(pop, area),
			Geometry:   geo.ToWGS84(f.Geometry, geo.LV95),
		})
	}
	return out
}

// Dichte is population per area scaled by 1000; 0 for a zero area.
func Dichte(population, area float64) float64 {
	if area == 0 {
		return 0
	}
	return population / area * 1000
}
