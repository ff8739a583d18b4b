package store

import (
	"context"
	"geo-editor/model"
	"sync"
)

// MemoryStore keeps serialized collections in process memory. It backs the
// demo mode, where nothing outlives the server.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Load returns the stored collection, or an empty one for unknown projects.
func (s *MemoryStore) Load(ctx context.Context, projectID string) ([]model.Point, error) {
	s.mu.RLock()
	raw := s.data[projectID]
	s.mu.RUnlock()
	return DecodePoints(raw)
}

// Save replaces the collection of projectID.
func (s *MemoryStore) Save(ctx context.Context, projectID string, points []model.Point) ([]model.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := EncodePoints(points)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.data[projectID] = raw
	s.mu.Unlock()
	return DecodePoints(raw)
}

// Put stores raw JSON as is. Used to seed demo data and in tests.
func (s *MemoryStore) Put(projectID string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[projectID] = raw
}
