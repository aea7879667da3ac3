// Package cursor keeps track of which stream items have already been seen.
//
// The Store holds the cursor in memory and writes the full state through its
// Backend on every mutation before returning. A failed write is reported to the
// caller wrapped in models.ErrPersistence, but the in-memory state has already
// advanced and is kept.
package cursor

import (
	"context"
	"fmt"
	"sync"

	"alert-monitor/internal/models"
)

// Backend durably stores a Cursor.
type Backend interface {
	Load(ctx context.Context) (models.Cursor, error)
	Save(ctx context.Context, c models.Cursor) error
	Name() string
}

// Store is the single owner of the cursor state.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	lastSeen *int64
	seen     map[int64]struct{}
	capacity int
}

// Open loads the persisted cursor through backend.
func Open(ctx context.Context, backend Backend) (*Store, error) {
	c, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load cursor from %s: %v", models.ErrPersistence, backend.Name(), err)
	}
	s := &Store{
		backend:  backend,
		seen:     make(map[int64]struct{}, len(c.SeenIDs)),
		capacity: models.MaxSeenIDs,
	}
	if c.LastSeenID != nil {
		id := *c.LastSeenID
		s.lastSeen = &id
	}
	for _, id := range c.SeenIDs {
		s.seen[id] = struct{}{}
	}
	s.evict()
	return s, nil
}

// Load returns a snapshot of the current cursor.
func (s *Store) Load() models.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// LastSeenID returns the cursor position, nil before anything was seen.
func (s *Store) LastSeenID() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSeen == nil {
		return nil
	}
	id := *s.lastSeen
	return &id
}

// IsSeen reports whether id is in the dedup window.
func (s *Store) IsSeen(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return ok
}

// SeenCount returns the size of the dedup window.
func (s *Store) SeenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// RecordSeen adds id to the dedup window. It is a no-op when id is already present.
func (s *Store) RecordSeen(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return nil
	}
	s.seen[id] = struct{}{}
	s.evict()
	return s.flush(ctx)
}

// AdvanceCursorTo moves the cursor forward. It is a no-op when id <= lastSeenId.
func (s *Store) AdvanceCursorTo(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastSeen != nil && id <= *s.lastSeen {
		return nil
	}
	s.lastSeen = &id
	return s.flush(ctx)
}

// evict keeps only the capacity largest ids. Ids are assigned in non-decreasing
// order by the source, so this drops the oldest first.
func (s *Store) evict() {
	if len(s.seen) <= s.capacity {
		return
	}
	sorted := models.SortedSeenIDs(s.seen)
	for _, id := range sorted[:len(sorted)-s.capacity] {
		delete(s.seen, id)
	}
}

func (s *Store) snapshot() models.Cursor {
	c := models.Cursor{SeenIDs: models.SortedSeenIDs(s.seen)}
	if s.lastSeen != nil {
		id := *s.lastSeen
		c.LastSeenID = &id
	}
	return c
}

func (s *Store) flush(ctx context.Context) error {
	if err := s.backend.Save(ctx, s.snapshot()); err != nil {
		return fmt.Errorf("%w: save cursor to %s: %v", models.ErrPersistence, s.backend.Name(), err)
	}
	return nil
}
