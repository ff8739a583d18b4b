package session

import (
	"context"
	"fmt"
	"geo-editor/editor"
	"geo-editor/model"
	"log"
	"sync"
)

// Manager keeps one session per user. A user switching project reuses the
// session; the controller is reloaded and the view re-homed.
type Manager struct {
	store Store
	opts  editor.Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a manager backed by store.
func NewManager(store Store, opts editor.Options) *Manager {
	return &Manager{
		store:    store,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Open loads project for userID and makes it the user's active session.
func (m *Manager) Open(ctx context.Context, userID string, project model.Project) (*Session, error) {
	points, err := m.store.Load(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("load points for project %s: %w", project.ID, err)
	}

	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok {
		s = newSession(userID, m.store, m.opts)
		m.sessions[userID] = s
	}
	m.mu.Unlock()

	if s.Project().ID != project.ID {
		s.syncer.Reset()
	}
	s.setProject(project)
	s.View.FlyTo(project.Center, project.Zoom)
	s.Controller.Load(project.ID, points)

	log.Printf("[info] session opened user=%s project=%s points=%d", userID, project.ID, len(points))
	return s, nil
}

// Get returns the user's session.
func (m *Manager) Get(userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// GetProject returns the user's session only if it is on projectID.
func (m *Manager) GetProject(userID, projectID string) (*Session, error) {
	s, err := m.Get(userID)
	if err != nil {
		return nil, err
	}
	if s.Project().ID != projectID {
		return nil, ErrNoSession
	}
	return s, nil
}

// Reload re-reads the points of every session open on projectID, e.g. after
// a bulk import. Drafts in those sessions are dropped.
func (m *Manager) Reload(ctx context.Context, projectID string) error {
	m.mu.Lock()
	var targets []*Session
	for _, s := range m.sessions {
		if s.Project().ID == projectID {
			targets = append(targets, s)
		}
	}
	m.mu.Unlock()
	if len(targets) == 0 {
		return nil
	}

	points, err := m.store.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("reload project %s: %w", projectID, err)
	}
	for _, s := range targets {
		s.Controller.Load(projectID, points)
	}
	return nil
}

// Close ends the user's session (logout).
func (m *Manager) Close(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
