// Package visibility tracks which regions the user has enabled. State is
// keyed by region identifier, defaults to enabled, and survives repeated
// reclassification for the lifetime of a session.
package visibility

import (
	"maps"
	"sync"
)

// Store maps region identifiers to an enabled flag. Unknown identifiers
// read as enabled. The store only grows; there is no eviction.
//
// Store is safe for concurrent use. Individual calls are atomic, a sequence
// of calls is not; callers that need merge-then-read consistency must hold
// their own lock around the sequence.
type Store struct {
	mu     sync.Mutex
	states map[int]bool
}

// New returns an empty store.
func New() *Store {
	return &Store{states: make(map[int]bool)}
}

// Get returns the stored flag for id, or true if id was never seen.
func (s *Store) Get(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	enabled, ok := s.states[id]
	if !ok {
		return true
	}
	return enabled
}

// Set records the flag for id.
func (s *Store) Set(id int, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[id] = enabled
}

// Merge registers the identifiers of a new classification pass. Identifiers
// not seen before start enabled; known identifiers keep their value, as do
// identifiers absent from ids.
func (s *Store) Merge(ids []int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.states[id]; !ok {
			s.states[id] = true
		}
	}
}

// Carry copies stored flags to new identifiers, moves[from] = to. All
// sources are read before any destination is written, so swapped
// identifiers carry correctly. Sources without a stored flag are skipped.
func (s *Store) Carry(moves map[int]int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	carried := make(map[int]bool, len(moves))
	for from, to := range moves {
		if enabled, ok := s.states[from]; ok {
			carried[to] = enabled
		}
	}
	for to, enabled := range carried {
		s.states[to] = enabled
	}
}

// Known reports whether id has a stored flag.
func (s *Store) Known(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.states[id]
	return ok
}

// Len returns the number of stored identifiers.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.states)
}

// Snapshot returns a copy of the stored flags.
func (s *Store) Snapshot() map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return maps.Clone(s.states)
}
