// Package store is the single in-memory source of truth for focusboard data.
// It owns every entity map, exposes typed CRUD mutators and derived queries,
// and notifies listeners after each successful change so that persistence
// and sync can react without the store knowing about them.
package store

import (
	"cmp"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"focusboard/internal/model"
)

var (
	// ErrNotFound is returned by mutators when the target id does not exist.
	// The store is left unchanged.
	ErrNotFound = errors.New("not found")

	// ErrInvalid is returned when input fails validation.
	ErrInvalid = errors.New("invalid input")
)

// Store holds the normalized AppState.
type Store struct {
	mu         sync.RWMutex
	state      model.AppState
	modifiedAt time.Time

	now   func() time.Time
	newID func(prefix string) string

	listenersMu  sync.Mutex
	listeners    map[int]func()
	nextListener int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for createdAt/updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDFunc overrides id generation (tests use it for stable ids).
func WithIDFunc(fn func(prefix string) string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates an empty store with default settings.
func New(opts ...Option) *Store {
	s := &Store{
		state:     model.NewAppState(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     newID,
		listeners: make(map[int]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newID builds "<prefix>_<unix millis>_<16 hex chars>".
func newID(prefix string) string {
	var b [8]byte
	// crypto/rand.Read does not fail on supported platforms.
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(b[:]))
}

// Now returns the current time according to the store clock.
func (s *Store) Now() time.Time {
	return s.now()
}

// OnChange registers fn to run after every successful mutation. Listeners run
// synchronously on the mutating goroutine, after the store lock is released.
// The returned func removes the listener.
func (s *Store) OnChange(fn func()) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *Store) notify() {
	s.listenersMu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// mutate runs fn under the write lock and, when fn succeeds, bumps the
// modification time and notifies listeners.
func (s *Store) mutate(fn func(now time.Time) error) error {
	s.mu.Lock()
	now := s.now()
	if err := fn(now); err != nil {
		s.mu.Unlock()
		return err
	}
	s.modifiedAt = now
	s.mu.Unlock()

	s.notify()
	return nil
}

// State returns a deep copy of the whole AppState.
func (s *Store) State() model.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// ModifiedAt is the time of the last local mutation or Replace.
func (s *Store) ModifiedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modifiedAt
}

// Replace swaps in a whole new state (hydration, or a sync pull that won the
// conflict). modifiedAt becomes the timestamp the new state is known by; a
// zero value falls back to the newest entity timestamp in state.
func (s *Store) Replace(state model.AppState, modifiedAt time.Time) {
	next := state.Clone()
	next.Normalize()
	if modifiedAt.IsZero() {
		modifiedAt = next.LatestChange()
	}

	s.mu.Lock()
	s.state = next
	s.modifiedAt = modifiedAt
	s.mu.Unlock()

	s.notify()
}

// Reset clears every entity and restores default settings.
func (s *Store) Reset() {
	s.Replace(model.NewAppState(), time.Time{})
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// byCreated orders entities by creation time, then id, so list queries are
// deterministic even though the maps are not.
func byCreated(aCreated, bCreated time.Time, aID, bID string) int {
	if c := aCreated.Compare(bCreated); c != 0 {
		return c
	}
	return cmp.Compare(aID, bID)
}
