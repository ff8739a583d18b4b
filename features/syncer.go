package features

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/paulmach/orb/geojson"
)

// Surface is the rendering side of the map: a point source that can be
// replaced wholesale once the map has finished initializing.
type Surface interface {
	Ready() bool
	SetData(fc *geojson.FeatureCollection) error
}

// Syncer pushes derived collections to a Surface. Identical payloads and
// stale revisions are dropped; while the surface is not ready the latest
// collection is held and delivered by Flush.
type Syncer struct {
	mu      sync.Mutex
	surface Surface

	lastRev  uint64
	lastData []byte

	pending    *geojson.FeatureCollection
	pendingRev uint64
}

// NewSyncer binds a syncer to surface.
func NewSyncer(surface Surface) *Syncer {
	return &Syncer{surface: surface}
}

// Apply delivers fc computed at revision rev. It reports whether the surface
// was actually updated.
func (s *Syncer) Apply(rev uint64, fc *geojson.FeatureCollection) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rev < s.lastRev || rev < s.pendingRev {
		return false, nil
	}
	if !s.surface.Ready() {
		s.pending = fc
		s.pendingRev = rev
		return false, nil
	}
	return s.applyLocked(rev, fc)
}

// Flush delivers the queued collection, if any. Call it once the surface
// reports ready.
func (s *Syncer) Flush() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil || !s.surface.Ready() {
		return false, nil
	}
	fc, rev := s.pending, s.pendingRev
	s.pending = nil
	return s.applyLocked(rev, fc)
}

// Reset forgets what was applied, so the next Apply always reaches the
// surface. Used when the surface itself is rebuilt (project switch).
func (s *Syncer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRev = 0
	s.lastData = nil
	s.pending = nil
	s.pendingRev = 0
}

// Pending reports whether a collection is waiting for the surface.
func (s *Syncer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func (s *Syncer) applyLocked(rev uint64, fc *geojson.FeatureCollection) (bool, error) {
	data, err := fc.MarshalJSON()
	if err != nil {
		return false, fmt.Errorf("encode features: %w", err)
	}
	s.lastRev = rev
	if s.lastData != nil && bytes.Equal(data, s.lastData) {
		return false, nil
	}
	if err := s.surface.SetData(fc); err != nil {
		return false, fmt.Errorf("set surface data: %w", err)
	}
	s.lastData = data
	return true, nil
}
