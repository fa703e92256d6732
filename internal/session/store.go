// Package session holds the process-local view of the authenticated identity.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fixmyhinge/fixmyhinge/internal/identity"
	"github.com/fixmyhinge/fixmyhinge/internal/profile"
)

// Snapshot is the store's published value: the current identity (nil when
// signed out) and whether the first provider notification is still pending.
type Snapshot struct {
	Identity *identity.Identity
	Loading  bool
}

// Store mirrors the identity provider's state-change stream. It is never
// written except from that stream, so updates are serialized by construction.
// On every signed-in notification it ensures the identity's profile document
// exists and carries a fresh last-login timestamp.
type Store struct {
	provider identity.Provider
	profiles profile.Repository
	logger   *slog.Logger

	mu     sync.RWMutex
	snap   Snapshot
	subs   map[int]func(Snapshot)
	nextID int

	unsubscribe func()
}

// New builds a store and subscribes it to the provider's change stream. The
// snapshot stays in the loading state until the first notification arrives.
func New(provider identity.Provider, profiles profile.Repository, logger *slog.Logger) *Store {
	s := &Store{
		provider: provider,
		profiles: profiles,
		logger:   logger,
		snap:     Snapshot{Loading: true},
		subs:     make(map[int]func(Snapshot)),
	}
	s.unsubscribe = provider.Subscribe(s.handleChange)
	return s
}

// Current returns the latest published snapshot.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe registers fn to run after every published change until the
// returned function is called.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Logout requests sign-out from the provider and propagates its error. Local
// state is not cleared optimistically; the subsequent state-change
// notification is the sole source of truth.
func (s *Store) Logout(ctx context.Context, sess identity.Session) error {
	return s.provider.SignOut(ctx, sess)
}

// Close detaches the store from the provider's change stream.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *Store) handleChange(ident *identity.Identity) {
	if ident != nil {
		// Profile upkeep failures never block the session transition; the
		// original client logs and carries on the same way.
		if err := s.EnsureProfile(context.Background(), *ident); err != nil && s.logger != nil {
			s.logger.Error("profile upkeep failed", "user_id", ident.ID, "error", err)
		}
	}

	s.mu.Lock()
	s.snap = Snapshot{Identity: ident, Loading: false}
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	snap := s.snap
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// EnsureProfile creates the identity's profile document on first sign-in, or
// merge-updates only the last-login timestamp on subsequent ones.
func (s *Store) EnsureProfile(ctx context.Context, ident identity.Identity) error {
	_, err := s.profiles.Get(ctx, ident.ID)
	switch {
	case errors.Is(err, profile.ErrNotFound):
		now := time.Now().UTC()
		return s.profiles.Create(ctx, profile.Document{
			ID:          ident.ID,
			PhoneNumber: ident.PhoneNumber,
			CreatedAt:   now,
			LastLoginAt: now,
		})
	case err != nil:
		return err
	default:
		now := time.Now().UTC()
		return s.profiles.Merge(ctx, ident.ID, profile.Patch{LastLoginAt: &now})
	}
}
