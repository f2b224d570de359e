// File: internal/refstore/store.go

// Package refstore keeps the mapping from short element references handed to
// callers back to the resolution data needed to act on them. References are
// valid only for the snapshot generation that produced them.
package refstore

import (
	"fmt"
	"sync"

	"github.com/xkilldash9x/framescope/api/schemas"
)

// Store holds reference entries grouped by frame key. Issuing a new set for
// a frame key atomically replaces the previous set, so references from an
// earlier snapshot of that frame can no longer resolve.
type Store struct {
	mu      sync.RWMutex
	byFrame map[string]map[string]schemas.RefEntry
	counter uint64
}

// New returns an empty store.
func New() *Store {
	return &Store{byFrame: make(map[string]map[string]schemas.RefEntry)}
}

// NextID mints a reference id for the given tier. The counter is shared
// across frames and never resets, so an id retired by a later snapshot can
// never be reissued for a different element.
func (s *Store) NextID(tier schemas.Tier) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return fmt.Sprintf("%s%d", tier.RefPrefix(), s.counter)
}

// Replace installs the entry set for a frame key, discarding whatever set
// that key held before.
func (s *Store) Replace(frameKey string, entries []schemas.RefEntry) {
	set := make(map[string]schemas.RefEntry, len(entries))
	for _, e := range entries {
		set[e.ID] = e
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byFrame[frameKey] = set
}

// Lookup returns the entry for refID within the frame key's current set.
func (s *Store) Lookup(frameKey, refID string) (schemas.RefEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.byFrame[frameKey]
	if !ok {
		return schemas.RefEntry{}, fmt.Errorf("no snapshot recorded for frame %q: %w", frameKey, schemas.ErrReferenceNotFound)
	}
	entry, ok := set[refID]
	if !ok {
		return schemas.RefEntry{}, fmt.Errorf("reference %q not found in current snapshot of frame %q: %w", refID, frameKey, schemas.ErrReferenceNotFound)
	}
	return entry, nil
}

// Entries returns the frame key's current entries in insertion-independent
// map order. Callers needing display order should keep the slice returned
// at snapshot time.
func (s *Store) Entries(frameKey string) []schemas.RefEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.byFrame[frameKey]
	if !ok {
		return nil
	}
	out := make([]schemas.RefEntry, 0, len(set))
	for _, e := range set {
		out = append(out, e)
	}
	return out
}

// Invalidate drops the entry set for one frame key.
func (s *Store) Invalidate(frameKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byFrame, frameKey)
}

// InvalidateAll drops every entry set. The id counter is retained.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byFrame = make(map[string]map[string]schemas.RefEntry)
}
