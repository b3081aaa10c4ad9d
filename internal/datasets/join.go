package datasets

import (
	"github.com/paulmach/orb"

	"github.com/kjstillabower/geo-data-maps/internal/geo"
	"github.com/kjstillabower/geo-data-maps/internal/models"
)

// RegionCounts counts the POIs falling inside each region. A POI counts for
// the first containing region only, unlike an inner spatial join that counts
// it in every one. The swissBOUNDARIES3D levels tile the country without
// overlap, so both agree for the region layers used here.
func RegionCounts(regions []models.Region, pois []models.POI) []int {
	geoms := make([]orb.Geometry, len(regions))
	for i, r := range regions {
		geoms[i] = r.Geometry
	}
	points := make([]orb.Point, len(pois))
	for i, p := range pois {
		points[i] = orb.Point{p.Lon, p.Lat}
	}
	return geo.NewRegionIndex(geoms).CountWithin(points)
}

// POIDensity returns OSM_DICHTE per region (COUNT / DICHTE * 1000) and its
// maximum. Regions with no density get 0.
func POIDensity(regions []models.Region, counts []int) ([]float64, float64) {
	out := make([]float64, len(regions))
	var max float64
	for i, r := range regions {
		if i >= len(counts) || r.Density == 0 {
			continue
		}
		out[i] = float64(counts[i]) / r.Density * 1000
		if out[i] > max {
			max = out[i]
		}
	}
	return out, max
}
