package stats

import "sync/atomic"

// Store publishes snapshots by atomic pointer swap. A refresh builds the new
// snapshot in full before Publish, so readers always observe one consistent
// map, never a partial update.
type Store struct {
	current atomic.Pointer[Snapshot]
}

func NewStore() *Store { return &Store{} }

// Publish replaces the current snapshot. The old snapshot stays valid for
// readers that already hold it.
func (s *Store) Publish(snap *Snapshot) {
	s.current.Store(snap)
}

// Current returns the latest snapshot, or ErrNotReady before the first
// Publish.
func (s *Store) Current() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotReady
	}
	return snap, nil
}
