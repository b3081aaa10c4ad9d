package datasets

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/kjstillabower/geo-data-maps/internal/geo"
)

func TestLandscapeFromLayer(t *testing.T) {
	layer := &geo.Layer{
		Table: "landschaftstypen",
		CRS:   geo.LV95,
		Features: []geo.Feature{
			{
				Geometry: orb.Polygon{{{2600000, 1200000}, {2601000, 1200000}, {2601000, 1201000}, {2600000, 1200000}}},
				Attributes: map[string]string{
					"OBJECT": "17", "TYP_NR": "4", "TYPNAME_DE": "HÃ¼gellandschaft", "REGNAME_DE": "Mittelland",
				},
			},
			{Geometry: nil, Attributes: map[string]string{"OBJECT": "18"}},
		},
	}
	areas := LandscapeFromLayer(layer)
	if len(areas) != 1 {
		t.Fatalf("len = %d, want 1", len(areas))
	}
	a := areas[0]
	if a.TypeNr != 4 || a.Object != "17" || a.TypeName != "Hügellandschaft" || a.Region != "Mittelland" {
		t.Errorf("area = %+v", a)
	}
	if c := a.Geometry.Bound().Min; !near(c.Lon(), 7.43864, 1e-3) {
		t.Errorf("not reprojected: %v", c)
	}
}

func TestLandscapeFromLayer_GuessesUndeclaredCRS(t *testing.T) {
	layer := &geo.Layer{
		CRS: geo.WGS84,
		Features: []geo.Feature{{
			Geometry:   orb.Polygon{{{2600000, 1200000}, {2601000, 1200000}, {2601000, 1201000}, {2600000, 1200000}}},
			Attributes: map[string]string{"TYP_NR": "2.0"},
		}},
	}
	areas := LandscapeFromLayer(layer)
	if areas[0].TypeNr != 2 {
		t.Errorf("TypeNr = %d, want 2", areas[0].TypeNr)
	}
	if lon := areas[0].Geometry.Bound().Min.Lon(); lon > 180 {
		t.Errorf("coordinates not reprojected: lon %v", lon)
	}
}
