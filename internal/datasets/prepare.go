package datasets

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/kjstillabower/geo-data-maps/internal/models"
)

// RegionCollection encodes regions as the prepared GeoJSON read back by
// Regions: NAME, EINWOHNERZ, the level's area field and DICHTE.
func RegionCollection(regions []models.Region, level RegionLevel) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range regions {
		f := geojson.NewFeature(r.Geometry)
		f.Properties["NAME"] = r.Name
		f.Properties["EINWOHNERZ"] = r.Population
		f.Properties[level.AreaField()] = r.Area
		f.Properties["DICHTE"] = r.Density
		fc.Append(f)
	}
	return fc
}

// AntennaCollection encodes antennas as WGS84 points with the numeric
// power_int weight next to the original text attributes.
func AntennaCollection(antennas []models.Antenna) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, a := range antennas {
		f := geojson.NewFeature(orb.Point{a.Lon, a.Lat})
		f.Properties["power_int"] = a.PowerCode
		f.Properties["powercode_de"] = a.Power
		f.Properties["techno_de"] = a.Techno
		f.Properties["typ_de"] = a.Type
		fc.Append(f)
	}
	return fc
}

// Region returns the prepared GeoJSON and source shapefile names of level.
func (f Files) Region(level RegionLevel) (prepared, shapefile string) {
	switch level {
	case Bezirke:
		return f.Bezirke, f.BezirkeShp
	case Gemeinden:
		return f.Gemeinden, f.GemeindenShp
	default:
		return f.Kantone, f.KantoneShp
	}
}
