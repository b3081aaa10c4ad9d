package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tidwall/rtree"
)

// RegionIndex answers point-in-region queries over a fixed set of polygons.
// Bounding boxes live in an R-tree; candidates are confirmed with an exact
// point-in-polygon test.
type RegionIndex struct {
	tree  rtree.RTree
	geoms []orb.Geometry
}

// NewRegionIndex indexes geoms. Entries that are not polygons or
// multipolygons are kept in place but never match.
func NewRegionIndex(geoms []orb.Geometry) *RegionIndex {
	ix := &RegionIndex{geoms: geoms}
	for i, g := range geoms {
		switch g.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			continue
		}
		b := g.Bound()
		ix.tree.Insert([2]float64{b.Min[0], b.Min[1]}, [2]float64{b.Max[0], b.Max[1]}, i)
	}
	return ix
}

// Locate returns the index of the first region containing p, or -1.
func (ix *RegionIndex) Locate(p orb.Point) int {
	found := -1
	pt := [2]float64{p[0], p[1]}
	ix.tree.Search(pt, pt, func(_, _ [2]float64, v interface{}) bool {
		i := v.(int)
		if contains(ix.geoms[i], p) {
			if found < 0 || i < found {
				found = i
			}
		}
		return true
	})
	return found
}

// CountWithin returns, per region, how many points fall inside it. Regions
// without points count 0.
func (ix *RegionIndex) CountWithin(points []orb.Point) []int {
	counts := make([]int, len(ix.geoms))
	for _, p := range points {
		if i := ix.Locate(p); i >= 0 {
			counts[i]++
		}
	}
	return counts
}

func contains(g orb.Geometry, p orb.Point) bool {
	switch v := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(v, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(v, p)
	}
	return false
}
