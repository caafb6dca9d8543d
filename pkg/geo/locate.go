package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Locate returns the region whose polygon contains p. The first matching
// feature in order wins. Bounding boxes are checked before the polygon test.
//
// FeatureSet satisfies dataset.Locator.
func (fs *FeatureSet) Locate(p orb.Point) (string, bool) {
	if fs == nil {
		return "", false
	}
	for _, f := range fs.Features {
		if f.Geometry == nil || f.RegionID == "" {
			continue
		}
		if !f.Geometry.Bound().Contains(p) {
			continue
		}
		if contains(f.Geometry, p) {
			return f.RegionID, true
		}
	}
	return "", false
}

func contains(g orb.Geometry, p orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, p)
	case orb.Ring:
		return planar.RingContains(geom, p)
	case orb.Collection:
		for _, member := range geom {
			if contains(member, p) {
				return true
			}
		}
	}
	return false
}
