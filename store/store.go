package store

import (
	"context"
	"errors"
	"geo-editor/model"
)

// ErrCorrupt is returned when stored data is not a JSON array at all.
// Individual malformed records never fail a load.
var ErrCorrupt = errors.New("store: corrupt point data")

// PointStore persists the point collection of a project. Save replaces the
// whole collection and returns what was stored.
type PointStore interface {
	Load(ctx context.Context, projectID string) ([]model.Point, error)
	Save(ctx context.Context, projectID string, points []model.Point) ([]model.Point, error)
}
