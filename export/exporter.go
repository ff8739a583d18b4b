package export

import (
	"context"
	"errors"
	"fmt"
	"geo-editor/model"
	"geo-editor/store"
	"log"
	"strings"
	"time"
)

var (
	ErrProjectRequired = errors.New("project id is required for exports")
	ErrUnknownFormat   = errors.New("unknown export format")
	ErrUnknownStatus   = errors.New("unknown status filter")
)

// Request selects what to export.
type Request struct {
	ProjectID string         `json:"-"`
	Format    Format         `json:"format"`
	Statuses  []model.Status `json:"statuses,omitempty"`
}

// Result describes a written export.
type Result struct {
	Key    string `json:"key"`
	Format Format `json:"format"`
	Count  int    `json:"count"`
}

// Exporter snapshots a project's points into the object store.
type Exporter struct {
	store    store.PointStore
	uploader Uploader
	now      func() time.Time
}

func NewExporter(s store.PointStore, u Uploader) *Exporter {
	return &Exporter{store: s, uploader: u, now: time.Now}
}

// Export writes one file. The format defaults to GeoJSON.
func (e *Exporter) Export(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.ProjectID) == "" {
		return nil, ErrProjectRequired
	}
	if req.Format == "" {
		req.Format = FormatGeoJSON
	}
	if !req.Format.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, req.Format)
	}
	for _, st := range req.Statuses {
		if !st.Known() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStatus, st)
		}
	}

	points, err := e.store.Load(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load points: %w", err)
	}
	points = Filter(points, req.Statuses)

	var data []byte
	switch req.Format {
	case FormatCSV:
		data, err = EncodeCSV(points)
	default:
		data, err = EncodeGeoJSON(points)
	}
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/%s/%s.%s", req.ProjectID, e.now().UTC().Format("20060102T150405Z"), req.Format.extension())
	if err := e.uploader.Put(ctx, key, data, req.Format.contentType()); err != nil {
		return nil, err
	}

	log.Printf("[info] operation=export project=%s key=%s count=%d", req.ProjectID, key, len(points))
	return &Result{Key: key, Format: req.Format, Count: len(points)}, nil
}
