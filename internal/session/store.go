// Package session holds the authenticated user for one client.
//
// A Store hydrates from persistence when it is constructed: the persisted user
// is read and adopted before the hydrating flag is cleared, so observers never
// see a logged-out state for a client that has a stored session. Login and
// Logout write through to persistence before updating memory.
package session

import (
	"context"
	"sync"

	"github.com/phonegate/portal/internal/model"
	"github.com/phonegate/portal/internal/storage"
)

// Persistence is the storage view a Store synchronizes with.
type Persistence interface {
	Get(ctx context.Context, key string, v any) bool
	Set(ctx context.Context, key string, v any)
	Remove(ctx context.Context, key string)
}

// Snapshot is one observable state of a Store.
type Snapshot struct {
	User      *model.User
	Hydrating bool
}

// Authenticated reports whether the snapshot carries a user.
func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

// Option configures a Store.
type Option func(*Store)

// WithObserver registers fn to receive every state change, starting with the
// hydrating snapshot.
func WithObserver(fn func(Snapshot)) Option {
	return func(s *Store) {
		if fn != nil {
			s.observers = append(s.observers, fn)
		}
	}
}

// Store is the session state of one client.
type Store struct {
	mu        sync.Mutex
	persist   Persistence
	user      *model.User
	hydrating bool
	closed    bool
	observers []func(Snapshot)
}

// New builds a Store and hydrates it from persist.
func New(ctx context.Context, persist Persistence, opts ...Option) *Store {
	s := &Store{persist: persist, hydrating: true}
	for _, opt := range opts {
		opt(s)
	}
	s.hydrate(ctx)
	return s
}

func (s *Store) hydrate(ctx context.Context) {
	s.notify(s.snapshot())

	var persisted model.User
	found := s.persist != nil && s.persist.Get(ctx, storage.UserKey, &persisted) && !persisted.IsZero()

	s.mu.Lock()
	if found {
		u := persisted
		s.user = &u
	}
	s.hydrating = false
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Login makes user the current user and persists it. It never fails; a
// storage failure only means the session will not survive a restart.
func (s *Store) Login(ctx context.Context, user model.User) {
	if s.persist != nil {
		s.persist.Set(ctx, storage.UserKey, user)
	}

	s.mu.Lock()
	u := user
	s.user = &u
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Logout clears the current user in memory and in persistence.
func (s *Store) Logout(ctx context.Context) {
	if s.persist != nil {
		s.persist.Remove(ctx, storage.UserKey)
	}

	s.mu.Lock()
	s.user = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// CurrentUser returns the signed-in user, if any.
func (s *Store) CurrentUser() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether a user is signed in.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.CurrentUser()
	return ok
}

// IsHydrating reports whether the initial read from persistence is in
// progress. It turns false once per Store and never turns true again.
func (s *Store) IsHydrating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrating
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close detaches all observers. The Store stays readable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.observers = nil
}

func (s *Store) snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Hydrating: s.hydrating}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Store) notify(snap Snapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	observers := append([]func(Snapshot){}, s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}
