package datasets

import (
	"context"
	"strconv"

	"github.com/kjstillabower/geo-data-maps/internal/geo"
	"github.com/kjstillabower/geo-data-maps/internal/models"
)

// Landscape returns the landscape typology polygons from the GeoPackage.
func (s *Store) Landscape(ctx context.Context) ([]models.LandscapeArea, error) {
	return loadStatic(s, "landscape", func() ([]models.LandscapeArea, error) {
		layer, err := geo.ReadGeoPackage(ctx, s.path(s.opts.Files.Landscape), "")
		if err != nil {
			return nil, err
		}
		out := LandscapeFromLayer(layer)
		recordCount("landscape", len(out))
		return out, nil
	})
}

// LandscapeFromLayer reprojects a GeoPackage layer and maps its typology
// attributes. A layer declared as WGS84 with projected coordinates is
// reprojected by coordinate magnitude.
func LandscapeFromLayer(layer *geo.Layer) []models.LandscapeArea {
	out := make([]models.LandscapeArea, 0, len(layer.Features))
	for _, f := range layer.Features {
		if f.Geometry == nil {
			continue
		}
		crs := layer.CRS
		if crs == geo.WGS84 {
			c := f.Geometry.Bound().Center()
			crs = geo.GuessCRS(c)
		}
		nr, _ := strconv.Atoi(f.Attributes["TYP_NR"])
		if nr == 0 {
			nr = int(attrFloat(f.Attributes, "TYP_NR"))
		}
		out = append(out, models.LandscapeArea{
			Object:   f.Attributes["OBJECT"],
			TypeName: geo.FixMojibake(f.Attributes["TYPNAME_DE"]),
			Region:   geo.FixMojibake(f.Attributes["REGNAME_DE"]),
			TypeNr:   nr,
			Geometry: geo.ToWGS84(f.Geometry, crs),
		})
	}
	return out
}
