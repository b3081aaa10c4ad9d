package datasets

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"

	"github.com/kjstillabower/geo-data-maps/internal/geo"
	"github.com/kjstillabower/geo-data-maps/internal/models"
)

func TestRegionCollection_ReadBackByRegions(t *testing.T) {
	dir := t.TempDir()
	poly := orb.Polygon{{{8, 47}, {9, 47}, {9, 48}, {8, 48}, {8, 47}}}
	regions := []models.Region{
		{Name: "Bülach", Population: 160000, Area: 18500, Density: Dichte(160000, 18500), Geometry: poly},
	}
	fc := RegionCollection(regions, Bezirke)
	if got := fc.Features[0].Properties["BEZIRKSFLA"]; got != 18500.0 {
		t.Fatalf("area property = %v, want 18500", got)
	}

	prepared, _ := testFiles().Region(Bezirke)
	if err := geo.WriteFeatureCollection(filepath.Join(dir, prepared), fc); err != nil {
		t.Fatalf("WriteFeatureCollection() error = %v", err)
	}
	s := newTestStore(t, newFakeUpstream(), Options{DataDir: dir})
	rs, err := s.Regions(context.Background(), Bezirke)
	if err != nil {
		t.Fatalf("Regions() error = %v", err)
	}
	if len(rs) != 1 {
		t.Fatalf("len = %d, want 1", len(rs))
	}
	got := rs[0]
	if got.Name != "Bülach" || got.Population != 160000 || got.Area != 18500 {
		t.Errorf("region = %+v", got)
	}
	if !near(got.Density, regions[0].Density, 1e-9) {
		t.Errorf("DICHTE = %v, want %v", got.Density, regions[0].Density)
	}
}

func TestAntennaCollection_ReadBackByAntennas(t *testing.T) {
	dir := t.TempDir()
	ants := []models.Antenna{
		{Lat: 46.95, Lon: 7.44, PowerCode: 5, Power: "Mittel", Techno: "5G", Type: "Makro"},
	}
	files := testFiles()
	if err := geo.WriteFeatureCollection(filepath.Join(dir, files.AntennasPrep), AntennaCollection(ants)); err != nil {
		t.Fatalf("WriteFeatureCollection() error = %v", err)
	}
	s := newTestStore(t, newFakeUpstream(), Options{DataDir: dir})
	got, err := s.Antennas(context.Background())
	if err != nil {
		t.Fatalf("Antennas() error = %v", err)
	}
	if len(got) != 1 || got[0] != ants[0] {
		t.Errorf("Antennas() = %+v, want %+v", got, ants)
	}
}

func TestFiles_Region(t *testing.T) {
	f := testFiles()
	tests := []struct {
		level RegionLevel
		want  string
	}{
		{Kantone, f.Kantone},
		{Bezirke, f.Bezirke},
		{Gemeinden, f.Gemeinden},
	}
	for _, tt := range tests {
		if got, _ := f.Region(tt.level); got != tt.want {
			t.Errorf("Region(%s) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
