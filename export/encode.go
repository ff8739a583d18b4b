package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"geo-editor/model"
	"strconv"

	"github.com/paulmach/orb/geojson"
)

// Format is an export file format.
type Format string

const (
	FormatGeoJSON Format = "geojson"
	FormatCSV     Format = "csv"
)

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	return f == FormatGeoJSON || f == FormatCSV
}

func (f Format) extension() string {
	return string(f)
}

func (f Format) contentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/geo+json"
}

// statusLabels are the human readable names used in CSV exports.
var statusLabels = map[model.Status]string{
	model.StatusNew:        "Nuevo",
	model.StatusInProgress: "En proceso",
	model.StatusResolved:   "Resuelto",
	model.StatusDiscarded:  "Descartado",
	model.StatusLoaded:     "Cargado",
	model.StatusPositioned: "Posicionado",
	model.StatusReview:     "Revisión",
	model.StatusCompleted:  "Completado",
	model.StatusOutlier:    "Outlier",
	model.StatusDeleted:    "Eliminado",
}

// StatusLabel falls back to the raw status.
func StatusLabel(s model.Status) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Filter keeps points whose status is in statuses. An empty set keeps all.
func Filter(points []model.Point, statuses []model.Status) []model.Point {
	if len(statuses) == 0 {
		return points
	}
	keep := make(map[model.Status]bool, len(statuses))
	for _, s := range statuses {
		keep[s] = true
	}
	out := make([]model.Point, 0, len(points))
	for _, p := range points {
		if keep[p.Status] {
			out = append(out, p)
		}
	}
	return out
}

// EncodeGeoJSON writes a FeatureCollection with every point field as a
// property, attributes included.
func EncodeGeoJSON(points []model.Point) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		f := geojson.NewFeature(p.Coordinates)
		f.ID = p.ID
		for k, v := range p.Attributes {
			f.Properties[k] = v
		}
		f.Properties["id"] = p.ID
		f.Properties["name"] = p.Name
		f.Properties["description"] = p.Description
		f.Properties["status"] = string(p.Status)
		fc.Append(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geojson: %w", err)
	}
	return data, nil
}

var csvHeader = []string{"id", "code", "name", "description", "status", "status_label", "latitude", "longitude"}

// EncodeCSV writes one row per point.
func EncodeCSV(points []model.Point) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, p := range points {
		code, _ := p.Attributes["code"].(string)
		row := []string{
			p.ID,
			code,
			p.Name,
			p.Description,
			string(p.Status),
			StatusLabel(p.Status),
			strconv.FormatFloat(p.Coordinates.Lat(), 'f', -1, 64),
			strconv.FormatFloat(p.Coordinates.Lon(), 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}
