package store

import (
	"context"
	"geo-editor/events"
	"geo-editor/model"
	"log"
	"time"
)

// publishingStore announces every successful save.
type publishingStore struct {
	PointStore
	pub events.Publisher
}

// WithEvents wraps s so that each successful Save publishes a points.saved
// event. Publish failures are logged; the save still succeeds.
func WithEvents(s PointStore, pub events.Publisher) PointStore {
	if pub == nil {
		return s
	}
	return &publishingStore{PointStore: s, pub: pub}
}

// Unwrap strips the event decorator added by WithEvents, for callers that
// publish their own, more specific event.
func Unwrap(s PointStore) PointStore {
	if ps, ok := s.(*publishingStore); ok {
		return ps.PointStore
	}
	return s
}

func (s *publishingStore) Save(ctx context.Context, projectID string, points []model.Point) ([]model.Point, error) {
	saved, err := s.PointStore.Save(ctx, projectID, points)
	if err != nil {
		return nil, err
	}
	e := events.Event{
		Type:       events.TypePointsSaved,
		ProjectID:  projectID,
		PointCount: len(saved),
		At:         time.Now().UTC(),
	}
	if err := s.pub.Publish(ctx, e); err != nil {
		log.Printf("[warn] operation=publish project=%s error=%v", projectID, err)
	}
	return saved, nil
}
