package store

import (
	"encoding/json"
	"fmt"
	"geo-editor/model"

	"github.com/paulmach/orb"
	"github.com/tidwall/gjson"
)

// EncodePoints serializes points in the flattened client shape.
func EncodePoints(points []model.Point) ([]byte, error) {
	if points == nil {
		points = []model.Point{}
	}
	data, err := json.Marshal(points)
	if err != nil {
		return nil, fmt.Errorf("encode points: %w", err)
	}
	return data, nil
}

// DecodePoints reads a JSON array of points. Records with missing or mistyped
// fields decode with zero values; non-object entries are skipped.
func DecodePoints(data []byte) ([]model.Point, error) {
	if len(data) == 0 {
		return []model.Point{}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, ErrCorrupt
	}
	res := gjson.ParseBytes(data)
	if !res.IsArray() {
		return nil, ErrCorrupt
	}

	points := []model.Point{}
	res.ForEach(func(_, v gjson.Result) bool {
		if v.IsObject() {
			points = append(points, DecodePoint(v))
		}
		return true
	})
	return points, nil
}

// DecodePoint builds a point from one JSON object.
func DecodePoint(v gjson.Result) model.Point {
	p := model.Point{
		ID:          scalarString(v.Get("id")),
		Name:        scalarString(v.Get("name")),
		Description: scalarString(v.Get("description")),
		Status:      model.Status(scalarString(v.Get("status"))),
		Coordinates: decodeCoordinates(v),
	}

	v.ForEach(func(k, val gjson.Result) bool {
		key := k.String()
		if model.IsCoreField(key) {
			return true
		}
		if p.Attributes == nil {
			p.Attributes = model.Attributes{}
		}
		p.Attributes[key] = val.Value()
		return true
	})
	return p
}

func decodeCoordinates(v gjson.Result) orb.Point {
	c := v.Get("coordinates")
	if c.IsArray() {
		arr := c.Array()
		if len(arr) >= 2 && arr[0].Type == gjson.Number && arr[1].Type == gjson.Number {
			return orb.Point{arr[0].Float(), arr[1].Float()}
		}
		return orb.Point{}
	}
	// older records kept separate lng/lat fields
	lng, lat := v.Get("lng"), v.Get("lat")
	if lng.Type == gjson.Number && lat.Type == gjson.Number {
		return orb.Point{lng.Float(), lat.Float()}
	}
	return orb.Point{}
}

// scalarString keeps strings and numbers (numeric ids from older APIs) and
// drops objects, arrays and null.
func scalarString(r gjson.Result) string {
	switch r.Type {
	case gjson.String, gjson.Number:
		return r.String()
	}
	return ""
}
