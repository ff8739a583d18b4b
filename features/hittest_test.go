package features

import (
	"geo-editor/model"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestHitTest(t *testing.T) {
	fc := Derive(fixturePoints(), "", nil)

	assert.Equal(t, "a", HitTest(fc, orb.Point{-74.1001, 4.6501}, 50))
	assert.Equal(t, "", HitTest(fc, orb.Point{-73.0, 4.0}, 50))
	assert.Equal(t, "", HitTest(nil, orb.Point{0, 0}, 50))
}

func TestHitTestPrefersTopmost(t *testing.T) {
	points := fixturePoints()
	draft := &model.Point{ID: "draft", Coordinates: points[0].Coordinates}
	fc := Derive(points, "", draft)

	assert.Equal(t, "draft", HitTest(fc, points[0].Coordinates, 10))
}

func TestHitTestDraftOnTopOfNearerPoint(t *testing.T) {
	points := fixturePoints()
	// about 5.5 m east of the first point
	draft := &model.Point{ID: "draft", Coordinates: orb.Point{points[0].Coordinates.Lon() + 0.00005, points[0].Coordinates.Lat()}}
	fc := Derive(points, "", draft)

	assert.Equal(t, "draft", HitTest(fc, points[0].Coordinates, 20))
	assert.Equal(t, "a", HitTest(fc, points[0].Coordinates, 3))
}
