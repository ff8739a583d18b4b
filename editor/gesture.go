package editor

import "github.com/paulmach/orb"

// GestureKind names the pointer events the map reports.
type GestureKind string

const (
	GestureClick     GestureKind = "click"
	GestureMouseDown GestureKind = "mousedown"
	GestureMouseMove GestureKind = "mousemove"
	GestureMouseUp   GestureKind = "mouseup"
)

// Gesture is a pointer event with its geographic position and, when the
// pointer was over a point, the topmost hit feature id.
type Gesture struct {
	Kind      GestureKind `json:"kind"`
	Coords    orb.Point   `json:"coords"`
	FeatureID string      `json:"featureId,omitempty"`
}

// Dispatch routes g to the matching handler. A click with a hit feature is a
// point click and never also a background click.
func (c *Controller) Dispatch(g Gesture) {
	switch g.Kind {
	case GestureClick:
		if g.FeatureID != "" {
			c.HandlePointClick(g.FeatureID)
			return
		}
		c.HandleMapClick(g.Coords)
	case GestureMouseDown:
		if g.FeatureID != "" {
			c.BeginDrag(g.FeatureID)
		}
	case GestureMouseMove:
		c.ContinueDrag(g.Coords)
	case GestureMouseUp:
		c.EndDrag()
	}
}
