package session

import (
	"context"
	"errors"
	"fmt"
	"geo-editor/editor"
	"geo-editor/features"
	"geo-editor/model"
	"log"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrNoSession is returned when the user has not opened a project.
var ErrNoSession = errors.New("no open session")

// Store is the persistence collaborator a session loads from and saves to.
type Store interface {
	Load(ctx context.Context, projectID string) ([]model.Point, error)
	editor.Saver
}

// Session is one user's editing session on one project.
type Session struct {
	UserID     string
	Controller *editor.Controller
	View       *View

	syncer *features.Syncer

	mu      sync.RWMutex
	project model.Project
}

func newSession(userID string, saver editor.Saver, opts editor.Options) *Session {
	view := NewView(orb.Point{}, 0)
	s := &Session{
		UserID:     userID,
		Controller: editor.New(saver, opts),
		View:       view,
		syncer:     features.NewSyncer(view),
	}
	s.Controller.OnChange(s.sync)
	return s
}

// sync re-derives the features for st and pushes them to the view.
func (s *Session) sync(st editor.State) {
	fc := features.Derive(st.Points, st.SelectedID, st.Draft)
	if _, err := s.syncer.Apply(st.Revision, fc); err != nil {
		log.Printf("[warn] session user=%s project=%s sync failed: %v", s.UserID, st.ProjectID, err)
	}
}

// Project returns the open project.
func (s *Session) Project() model.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project
}

// InitSurface initializes the view and delivers any features derived before
// it was ready.
func (s *Session) InitSurface(basemap string) error {
	if err := s.View.Init(basemap); err != nil {
		return err
	}
	if _, err := s.syncer.Flush(); err != nil {
		return fmt.Errorf("flush features: %w", err)
	}
	// the first Init may happen before any change: push the current state
	st := s.Controller.State()
	_, err := s.syncer.Apply(st.Revision, features.Derive(st.Points, st.SelectedID, st.Draft))
	return err
}

// Features derives the collection for the current state.
func (s *Session) Features() *geojson.FeatureCollection {
	st := s.Controller.State()
	return features.Derive(st.Points, st.SelectedID, st.Draft)
}

// Annotate fills in the hit feature of a gesture that arrived without one,
// using a tolerance in meters.
func (s *Session) Annotate(g editor.Gesture, toleranceMeters float64) editor.Gesture {
	if g.FeatureID != "" || toleranceMeters <= 0 {
		return g
	}
	if g.Kind != editor.GestureClick && g.Kind != editor.GestureMouseDown {
		return g
	}
	g.FeatureID = features.HitTest(s.Features(), g.Coords, toleranceMeters)
	return g
}

func (s *Session) setProject(p model.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = p
}
