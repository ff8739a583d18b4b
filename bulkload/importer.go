package bulkload

import (
	"context"
	"fmt"
	"geo-editor/events"
	"geo-editor/model"
	"geo-editor/store"
	"io"
	"log"
	"time"

	"github.com/google/uuid"
)

// Report is returned to the uploader.
type Report struct {
	Inserted    int        `json:"inserted"`
	Errors      []RowError `json:"errors"`
	TotalErrors int        `json:"total_errors"`
}

// Importer appends parsed rows to a project's collection.
type Importer struct {
	store store.PointStore
	pub   events.Publisher
	newID func() string
}

// NewImporter saves through s without its points.saved decorator; an import
// announces itself with a single points.imported event.
func NewImporter(s store.PointStore, pub events.Publisher) *Importer {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Importer{store: store.Unwrap(s), pub: pub, newID: uuid.NewString}
}

// Import parses r and persists the valid rows after the existing points.
// Critical errors leave the collection untouched.
func (im *Importer) Import(ctx context.Context, projectID string, r io.Reader) (*Report, error) {
	existing, err := im.store.Load(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load points: %w", err)
	}

	res, err := Parse(r, existing, im.newID)
	if err != nil {
		return nil, err
	}

	report := &Report{Inserted: len(res.Points), Errors: res.Errors, TotalErrors: len(res.Errors)}
	if len(res.Points) == 0 {
		return report, nil
	}

	merged := make([]model.Point, 0, len(existing)+len(res.Points))
	merged = append(merged, existing...)
	merged = append(merged, res.Points...)
	if _, err := im.store.Save(ctx, projectID, merged); err != nil {
		return nil, fmt.Errorf("save points: %w", err)
	}

	e := events.Event{
		Type:       events.TypePointsImported,
		ProjectID:  projectID,
		PointCount: len(res.Points),
		At:         time.Now().UTC(),
	}
	if err := im.pub.Publish(ctx, e); err != nil {
		log.Printf("[warn] operation=publish project=%s error=%v", projectID, err)
	}
	return report, nil
}
