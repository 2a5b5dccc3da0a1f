package mapper

import (
	"sync/atomic"

	"portolan"
)

// Store holds the latest topology snapshot. Publishes swap the whole
// snapshot atomically, so readers never block and never see a
// half-written topology. Returned snapshots are shared; treat them as
// read-only.
type Store struct {
	current atomic.Pointer[portolan.Snapshot]
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Publish replaces the current snapshot.
func (s *Store) Publish(snap portolan.Snapshot) {
	s.current.Store(&snap)
}

// Current returns the latest snapshot. ok is false until the first
// publish.
func (s *Store) Current() (portolan.Snapshot, bool) {
	p := s.current.Load()
	if p == nil {
		return portolan.Snapshot{}, false
	}
	return *p, true
}
