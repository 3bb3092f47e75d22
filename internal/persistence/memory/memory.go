// Package memory provides an in-process persistence backend with the same
// constraint behaviour as the SQLite store. It is used by tests and by the
// `memory` storage mode.
package memory

import (
	"context"
	"sync"

	"github.com/example/campground/internal/persistence"
)

// Storage keeps every record in maps guarded by a RWMutex. Writers are
// additionally serialised by writeMu, which a transaction holds for its whole
// duration while it works on a private copy of the state.
type Storage struct {
	view

	writeMu sync.Mutex
	mu      sync.RWMutex
	st      *state
}

var _ persistence.Store = (*Storage)(nil)

// Open returns an empty Storage.
func Open() *Storage {
	s := &Storage{st: newState()}
	s.view = view{read: s.read, write: s.write}
	return s
}

// Close releases resources held by the storage. No-op for the in-memory implementation.
func (s *Storage) Close() error {
	return nil
}

// Migrate initialises the storage. No-op for the in-memory implementation.
func (s *Storage) Migrate(context.Context) error {
	return nil
}

// WithinTransaction runs fn against a copy of the current state and publishes
// the copy only when fn succeeds.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos persistence.Repositories) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	work := s.st.clone()
	s.mu.RUnlock()

	direct := func(fn func(st *state) error) error { return fn(work) }
	tx := view{read: direct, write: direct}
	if err := fn(ctx, persistence.Repositories{
		Campsites:     tx,
		AssignedSites: tx,
		Reservations:  tx,
		WaitingList:   tx,
	}); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = work
	s.mu.Unlock()
	return nil
}

func (s *Storage) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

func (s *Storage) write(fn func(st *state) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}
