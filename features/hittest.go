package features

import (
	"geo-editor/utils"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// HitTest returns the id of the topmost feature within toleranceMeters of at,
// or "" when nothing is hit. Later features paint on top, so the draft wins
// over any stored point in range even when that point is nearer.
func HitTest(fc *geojson.FeatureCollection, at orb.Point, toleranceMeters float64) string {
	if fc == nil {
		return ""
	}

	for i := len(fc.Features) - 1; i >= 0; i-- {
		f := fc.Features[i]
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		if utils.HaversineDistance(pt, at) <= toleranceMeters {
			return f.Properties.MustString(PropID, "")
		}
	}
	return ""
}
