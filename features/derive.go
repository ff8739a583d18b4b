package features

import (
	"geo-editor/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature property keys.
const (
	PropID          = "id"
	PropName        = "name"
	PropStatus      = "status"
	PropDraft       = "isDraft"
	PropSelected    = "isSelected"
	PropRadius      = "radius"
	PropColor       = "color"
	PropStrokeWidth = "strokeWidth"
	PropOpacity     = "opacity"
)

// UnnamedLabel is shown for points without a name.
const UnnamedLabel = "unnamed"

// Derive builds the renderable collection: one feature per point in order,
// then the draft (if any) last so it paints and hit-tests on top.
// It reads nothing but its arguments and never mutates them.
func Derive(points []model.Point, selectedID string, draft *model.Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, len(points)+1)

	for _, p := range points {
		selected := selectedID != "" && p.ID == selectedID
		fc.Append(newFeature(p, selected, false))
	}
	if draft != nil {
		fc.Append(newFeature(*draft, true, true))
	}
	return fc
}

func newFeature(p model.Point, selected, draft bool) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{p.Coordinates.Lon(), p.Coordinates.Lat()})

	name := p.Name
	if name == "" {
		name = UnnamedLabel
	}
	style := StyleFor(p.Status, selected, draft)

	f.Properties = geojson.Properties{
		PropID:          p.ID,
		PropName:        name,
		PropStatus:      string(p.Status),
		PropDraft:       draft,
		PropSelected:    selected,
		PropRadius:      style.Radius,
		PropColor:       style.Color,
		PropStrokeWidth: style.StrokeWidth,
		PropOpacity:     style.Opacity,
	}
	return f
}
