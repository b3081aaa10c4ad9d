package datasets

import (
	"context"
	"testing"
)

func TestTurbinesFromRows(t *testing.T) {
	rows := []map[string]string{
		{"x": "2600000", "y": "1200000", "manufacturer": "EnerconÃ¼", "model": "E-82", "ratedPower": "2300", "diameter": "82.0", "yearOfConstruction": "2011"},
		{"x": "", "y": "1200000", "manufacturer": "skipped"},
		{"x": "2700000", "y": "1100000", "manufacturer": "Vestas", "model": "V112", "ratedPower": "3300.5", "diameter": "112", "yearOfConstruction": ""},
	}
	turbines, err := TurbinesFromRows(rows)
	if err != nil {
		t.Fatalf("TurbinesFromRows() error = %v", err)
	}
	if len(turbines) != 2 {
		t.Fatalf("len = %d, want 2", len(turbines))
	}
	if turbines[0].Manufacturer != "Enerconü" {
		t.Errorf("Manufacturer = %q, want repaired umlaut", turbines[0].Manufacturer)
	}
	if turbines[0].Diameter != 82 || turbines[1].RatedPower != 3300 {
		t.Errorf("integers = %d/%d, want 82/3300", turbines[0].Diameter, turbines[1].RatedPower)
	}
	if !near(turbines[1].Lon, 8.73050, 1e-4) || !near(turbines[1].Lat, 46.04413, 1e-4) {
		t.Errorf("position = %v,%v", turbines[1].Lat, turbines[1].Lon)
	}
	if got := TotalMW(turbines); got != "5.600 mW" {
		t.Errorf("TotalMW = %q, want 5.600 mW", got)
	}
}

func TestTurbinesFromRows_BadNumber(t *testing.T) {
	rows := []map[string]string{{"x": "2600000", "y": "1200000", "ratedPower": "lots"}}
	if _, err := TurbinesFromRows(rows); err == nil {
		t.Fatal("expected error for non-numeric ratedPower")
	}
}

func TestTurbines_FromCSVFile(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, "wind-turb.csv", "x;y;manufacturer;model;ratedPower;diameter;yearOfConstruction\n2600000;1200000;Enercon;E-44;900;44;2005\n")
	s := newTestStore(t, newFakeUpstream(), Options{DataDir: dir})

	turbines, err := s.Turbines(context.Background())
	if err != nil {
		t.Fatalf("Turbines() error = %v", err)
	}
	if len(turbines) != 1 || turbines[0].Model != "E-44" || turbines[0].RatedPower != 900 {
		t.Errorf("turbines = %+v", turbines)
	}
}
