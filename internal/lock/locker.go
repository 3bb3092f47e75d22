// Package lock provides keyed mutual exclusion used to serialise
// check-then-write sequences per campsite.
package lock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Release frees every key obtained by a single Acquire call.
type Release func()

// Locker acquires exclusive ownership of a set of keys. Implementations
// acquire keys in ascending order so that concurrent multi-key callers cannot
// deadlock, and give up when ctx is done.
type Locker interface {
	Acquire(ctx context.Context, keys ...string) (Release, error)
}

// CampsiteKey returns the lock key guarding a campsite's assignments.
func CampsiteKey(campsiteID string) string {
	return "campsite:" + campsiteID
}

// CampsiteKeys maps campsite ids to lock keys.
func CampsiteKeys(campsiteIDs ...string) []string {
	keys := make([]string, 0, len(campsiteIDs))
	for _, id := range campsiteIDs {
		keys = append(keys, CampsiteKey(id))
	}
	return keys
}

// Normalize returns the distinct non-empty keys in ascending order.
func Normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// KeyedMutex is an in-process Locker. Slots are created on demand and
// discarded once no goroutine holds or waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex constructs an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

// Acquire blocks until every key is held or ctx is done. On failure no key
// remains held.
func (m *KeyedMutex) Acquire(ctx context.Context, keys ...string) (Release, error) {
	ordered := Normalize(keys)
	held := make([]string, 0, len(ordered))
	for _, key := range ordered {
		if err := m.acquire(ctx, key); err != nil {
			m.releaseAll(held)
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() { m.releaseAll(held) })
	}, nil
}

func (m *KeyedMutex) acquire(ctx context.Context, key string) error {
	m.mu.Lock()
	if m.slots == nil {
		m.slots = make(map[string]*slot)
	}
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	m.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		m.dropRefLocked(key, s)
		m.mu.Unlock()
		return ctx.Err()
	}
}

func (m *KeyedMutex) releaseAll(keys []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(keys) - 1; i >= 0; i-- {
		s, ok := m.slots[keys[i]]
		if !ok {
			continue
		}
		<-s.ch
		m.dropRefLocked(keys[i], s)
	}
}

func (m *KeyedMutex) dropRefLocked(key string, s *slot) {
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}

// held reports the number of live slots; used by tests.
func (m *KeyedMutex) held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

// WithWait bounds how long each Acquire on l may block. A zero or negative
// wait returns l unchanged.
func WithWait(l Locker, wait time.Duration) Locker {
	if wait <= 0 {
		return l
	}
	return boundedLocker{inner: l, wait: wait}
}

type boundedLocker struct {
	inner Locker
	wait  time.Duration
}

func (b boundedLocker) Acquire(ctx context.Context, keys ...string) (Release, error) {
	waitCtx, cancel := context.WithTimeout(ctx, b.wait)
	defer cancel()
	release, err := b.inner.Acquire(waitCtx, keys...)
	if err != nil {
		if ctx.Err() == nil {
			return nil, fmt.Errorf("lock: waited %s for %v: %w", b.wait, keys, err)
		}
		return nil, err
	}
	return release, nil
}
