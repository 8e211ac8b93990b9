// Package readiness tracks process-wide readiness of the query engine's
// dependencies.
//
// The state combines two flags: the embedding model is loaded, and the vector
// index is reachable. Both must hold before any request path may call the
// engine. Writes happen from the one-time initialization sequence and from
// the periodic health probe; reads happen on every request, so the state sits
// behind a read-mostly lock.
package readiness

import "sync"

// Status is the externally visible readiness phase.
type Status string

const (
	// StatusInitializing means the state has never been fully ready.
	StatusInitializing Status = "initializing"
	// StatusHealthy means both dependencies are confirmed live.
	StatusHealthy Status = "healthy"
	// StatusUnhealthy means the state was ready once and a later probe
	// found a dependency unreachable.
	StatusUnhealthy Status = "unhealthy"
)

// State is the process-wide readiness flag pair.
//
// A fresh State reports (false, false). Construct one per process (or per
// test case) and share it by reference; there is no global instance.
type State struct {
	mu         sync.RWMutex
	modelReady bool
	indexReady bool
	wasReady   bool
}

// NewState returns a State with both flags false.
func NewState() *State {
	return &State{}
}

// SetModelReady records whether the embedding model is loaded.
func (s *State) SetModelReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelReady = ready
	s.noteReadyLocked()
}

// SetIndexReady records whether the vector index is reachable.
func (s *State) SetIndexReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexReady = ready
	s.noteReadyLocked()
}

func (s *State) noteReadyLocked() {
	if s.modelReady && s.indexReady {
		s.wasReady = true
	}
}

// IsReady reports whether both dependencies are confirmed live.
func (s *State) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelReady && s.indexReady
}

// Snapshot returns both flags atomically.
func (s *State) Snapshot() (modelReady, indexReady bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelReady, s.indexReady
}

// Status returns the readiness phase for the health surface. A state that
// has never been fully ready reports initializing; one that degraded after
// being ready reports unhealthy.
func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.modelReady && s.indexReady:
		return StatusHealthy
	case s.wasReady:
		return StatusUnhealthy
	default:
		return StatusInitializing
	}
}
