package events

import (
	"context"
	"time"
)

// Event types.
const (
	TypePointsSaved    = "points.saved"
	TypePointsImported = "points.imported"
)

// Event announces a change to a project's points.
type Event struct {
	Type       string    `json:"type"`
	ProjectID  string    `json:"project_id"`
	PointCount int       `json:"point_count"`
	At         time.Time `json:"at"`
}

// Publisher delivers events to whoever listens downstream.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error {
	return nil
}

func (Noop) Close() error {
	return nil
}
