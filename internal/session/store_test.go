package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fixmyhinge/fixmyhinge/internal/identity"
	"github.com/fixmyhinge/fixmyhinge/internal/logging"
	"github.com/fixmyhinge/fixmyhinge/internal/profile"
)

// fakeProvider lets tests control exactly when state-change notifications
// fire. Unlike the real providers it does not notify on Subscribe, so the
// store's loading state stays observable.
type fakeProvider struct {
	fn         func(*identity.Identity)
	signOutErr error
}

func (p *fakeProvider) Subscribe(fn func(*identity.Identity)) func() {
	p.fn = fn
	return func() { p.fn = nil }
}

func (p *fakeProvider) publish(ident *identity.Identity) {
	if p.fn != nil {
		p.fn(ident)
	}
}

func (p *fakeProvider) InitiateChallenge(context.Context, string, identity.Proof) (identity.Challenge, error) {
	return identity.Challenge{}, nil
}

func (p *fakeProvider) Confirm(context.Context, identity.Challenge, string) (identity.Session, error) {
	return identity.Session{}, nil
}

func (p *fakeProvider) Reauthenticate(context.Context, identity.Session, identity.Challenge, string) (identity.Session, error) {
	return identity.Session{}, nil
}

func (p *fakeProvider) Lookup(context.Context, string) (identity.Identity, error) {
	return identity.Identity{}, identity.ErrInvalidToken
}

func (p *fakeProvider) SignOut(context.Context, identity.Session) error { return p.signOutErr }

func (p *fakeProvider) DeleteIdentity(context.Context, identity.Session) error { return nil }

func TestStoreStartsLoading(t *testing.T) {
	provider := &fakeProvider{}
	store := New(provider, profile.NewMemoryRepository(), logging.Discard())
	defer store.Close()

	snap := store.Current()
	if !snap.Loading {
		t.Fatalf("expected loading before the first notification")
	}
	if snap.Identity != nil {
		t.Fatalf("expected no identity while loading")
	}

	provider.publish(nil)
	snap = store.Current()
	if snap.Loading {
		t.Fatalf("a signed-out notification must end loading")
	}
}

func TestStoreCreatesProfileOnFirstSignIn(t *testing.T) {
	provider := &fakeProvider{}
	profiles := profile.NewMemoryRepository()
	store := New(provider, profiles, logging.Discard())
	defer store.Close()

	ident := identity.Identity{
		ID:          "u1",
		PhoneNumber: "+15550100",
		CreatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		LastLoginAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	provider.publish(&ident)

	snap := store.Current()
	if snap.Identity == nil || snap.Identity.ID != "u1" {
		t.Fatalf("expected snapshot for u1, got %+v", snap)
	}

	doc, err := profiles.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected a profile document: %v", err)
	}
	if doc.PhoneNumber != "+15550100" {
		t.Fatalf("expected phone on the document, got %q", doc.PhoneNumber)
	}

	// A later notification for the same identity only refreshes last-login.
	provider.publish(&ident)
	after, err := profiles.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get after second notification: %v", err)
	}
	if after.LastLoginAt.Before(doc.LastLoginAt) {
		t.Fatalf("last-login must not move backwards")
	}
}

func TestStoreMirrorsSignOut(t *testing.T) {
	provider := &fakeProvider{}
	store := New(provider, profile.NewMemoryRepository(), logging.Discard())
	defer store.Close()

	provider.publish(&identity.Identity{ID: "u1", PhoneNumber: "+15550100"})
	provider.publish(nil)

	snap := store.Current()
	if snap.Loading || snap.Identity != nil {
		t.Fatalf("expected a settled signed-out snapshot, got %+v", snap)
	}
}

func TestStoreNotifiesSubscribers(t *testing.T) {
	provider := &fakeProvider{}
	store := New(provider, profile.NewMemoryRepository(), logging.Discard())
	defer store.Close()

	var seen []Snapshot
	unsub := store.Subscribe(func(snap Snapshot) { seen = append(seen, snap) })

	provider.publish(&identity.Identity{ID: "u1", PhoneNumber: "+15550100"})
	provider.publish(nil)

	if len(seen) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(seen))
	}
	if seen[0].Identity == nil || seen[1].Identity != nil {
		t.Fatalf("expected sign-in then sign-out, got %+v", seen)
	}

	unsub()
	provider.publish(nil)
	if len(seen) != 2 {
		t.Fatalf("unsubscribed callback must not fire")
	}
}

func TestLogoutPropagatesProviderError(t *testing.T) {
	wantErr := errors.New("network down")
	provider := &fakeProvider{signOutErr: wantErr}
	store := New(provider, profile.NewMemoryRepository(), logging.Discard())
	defer store.Close()

	provider.publish(&identity.Identity{ID: "u1", PhoneNumber: "+15550100"})

	err := store.Logout(context.Background(), identity.Session{Identity: identity.Identity{ID: "u1"}})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the provider error, got %v", err)
	}

	// No notification arrived, so the session stays as-is.
	if snap := store.Current(); snap.Identity == nil {
		t.Fatalf("failed sign-out must not clear local state")
	}
}
