package features

import "geo-editor/model"

// Point layer paint constants.
const (
	RadiusPlain    = 7.0
	RadiusEmphasis = 9.0

	StrokeWidthPlain    = 1.5
	StrokeWidthEmphasis = 3.0

	OpacityPlain    = 0.8
	OpacityEmphasis = 1.0

	StrokeColor   = "#ffffff"
	FallbackColor = "#7f8c8d"
)

// StatusColors maps every catalogue status to its fill color.
var StatusColors = map[model.Status]string{
	model.StatusNew:        "#2f80ed",
	model.StatusInProgress: "#f2994a",
	model.StatusResolved:   "#27ae60",
	model.StatusDiscarded:  "#eb5757",
	model.StatusLoaded:     "#56ccf2",
	model.StatusPositioned: "#9b51e0",
	model.StatusReview:     "#f2c94c",
	model.StatusCompleted:  "#219653",
	model.StatusOutlier:    "#bb6bd9",
	model.StatusDeleted:    "#4f4f4f",
}

// Style is the visual encoding of one feature.
type Style struct {
	Radius      float64 `json:"radius"`
	Color       string  `json:"color"`
	StrokeColor string  `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
}

// StyleFor is total: unknown or empty statuses get FallbackColor.
func StyleFor(status model.Status, selected, draft bool) Style {
	s := Style{
		Radius:      RadiusPlain,
		Color:       ColorFor(status),
		StrokeColor: StrokeColor,
		StrokeWidth: StrokeWidthPlain,
		Opacity:     OpacityPlain,
	}
	if selected || draft {
		s.Radius = RadiusEmphasis
		s.StrokeWidth = StrokeWidthEmphasis
		s.Opacity = OpacityEmphasis
	}
	return s
}

// ColorFor returns the fill color for status.
func ColorFor(status model.Status) string {
	if c, ok := StatusColors[status]; ok {
		return c
	}
	return FallbackColor
}

// LayerPaint returns the circle-layer paint expressions a map engine needs to
// reproduce StyleFor from feature properties alone.
func LayerPaint() map[string]any {
	emphasis := []any{"any", []any{"get", PropSelected}, []any{"get", PropDraft}}

	match := []any{"match", []any{"get", PropStatus}}
	for _, st := range model.Statuses {
		match = append(match, string(st), StatusColors[st])
	}
	match = append(match, FallbackColor)

	return map[string]any{
		"circle-radius":         []any{"case", emphasis, RadiusEmphasis, RadiusPlain},
		"circle-color":          match,
		"circle-stroke-color":   StrokeColor,
		"circle-stroke-width":   []any{"case", emphasis, StrokeWidthEmphasis, StrokeWidthPlain},
		"circle-opacity":        []any{"case", emphasis, OpacityEmphasis, OpacityPlain},
		"circle-stroke-opacity": []any{"case", emphasis, OpacityEmphasis, OpacityPlain},
	}
}
