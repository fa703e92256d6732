package identity

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixmyhinge/fixmyhinge/internal/notification"
)

const challengeTTL = 5 * time.Minute

type memoryChallenge struct {
	phoneNumber string
	codeHash    []byte
	expiresAt   time.Time
	used        bool
}

// MemoryProvider is an in-process stand-in for the hosted platform, used in
// development and tests. Codes are delivered through the notifier and only
// their bcrypt hashes are retained; challenges are single-use and expire.
type MemoryProvider struct {
	mu         sync.Mutex
	identities map[string]Identity // keyed by id
	byPhone    map[string]string   // phone number -> id
	challenges map[string]*memoryChallenge
	sessions   map[string]string // token -> id
	notifier   notification.Notifier
	now        func() time.Time
	stateNotifier
}

// NewMemoryProvider builds an in-memory identity provider delivering codes
// through the given notifier.
func NewMemoryProvider(notifier notification.Notifier) *MemoryProvider {
	return &MemoryProvider{
		identities: make(map[string]Identity),
		byPhone:    make(map[string]string),
		challenges: make(map[string]*memoryChallenge),
		sessions:   make(map[string]string),
		notifier:   notifier,
		now:        time.Now,
	}
}

// InitiateChallenge issues a 6-digit code for the number and sends it through
// the notifier. Any non-empty proof passes; an empty proof is rejected the
// way the platform rejects a failed captcha.
func (p *MemoryProvider) InitiateChallenge(ctx context.Context, phoneNumber string, proof Proof) (Challenge, error) {
	if proof == "" {
		return Challenge{}, ErrBadProof
	}
	if len(phoneNumber) < 2 || phoneNumber[0] != '+' {
		return Challenge{}, ErrInvalidPhone
	}

	code, err := randomCode()
	if err != nil {
		return Challenge{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return Challenge{}, err
	}

	handle := uuid.NewString()
	p.mu.Lock()
	p.challenges[handle] = &memoryChallenge{
		phoneNumber: phoneNumber,
		codeHash:    hash,
		expiresAt:   p.now().Add(challengeTTL),
	}
	p.mu.Unlock()

	if p.notifier != nil {
		if err := p.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindVerificationCode,
			Destination: phoneNumber,
			Body:        code,
		}); err != nil {
			return Challenge{}, err
		}
	}

	return Challenge{Handle: handle}, nil
}

// Confirm redeems the challenge, provisioning the identity on first sign-in.
func (p *MemoryProvider) Confirm(_ context.Context, ch Challenge, code string) (Session, error) {
	p.mu.Lock()

	mc, ok := p.challenges[ch.Handle]
	if !ok || mc.used {
		p.mu.Unlock()
		return Session{}, ErrChallengeExpired
	}
	if p.now().After(mc.expiresAt) {
		delete(p.challenges, ch.Handle)
		p.mu.Unlock()
		return Session{}, ErrChallengeExpired
	}
	if bcrypt.CompareHashAndPassword(mc.codeHash, []byte(code)) != nil {
		p.mu.Unlock()
		return Session{}, ErrCodeMismatch
	}
	mc.used = true

	now := p.now().UTC()
	id, exists := p.byPhone[mc.phoneNumber]
	var ident Identity
	if exists {
		ident = p.identities[id]
		ident.LastLoginAt = now
	} else {
		ident = Identity{
			ID:          uuid.NewString(),
			PhoneNumber: mc.phoneNumber,
			CreatedAt:   now,
			LastLoginAt: now,
		}
		p.byPhone[mc.phoneNumber] = ident.ID
	}
	p.identities[ident.ID] = ident

	token := uuid.NewString()
	p.sessions[token] = ident.ID
	p.mu.Unlock()

	p.publish(&ident)
	return Session{Identity: ident, Token: token}, nil
}

// Reauthenticate redeems a fresh challenge and checks it proves the same identity.
func (p *MemoryProvider) Reauthenticate(ctx context.Context, sess Session, ch Challenge, code string) (Session, error) {
	fresh, err := p.Confirm(ctx, ch, code)
	if err != nil {
		return Session{}, err
	}
	if fresh.Identity.ID != sess.Identity.ID {
		return Session{}, ErrInvalidToken
	}
	return fresh, nil
}

// Lookup resolves a token to its identity.
func (p *MemoryProvider) Lookup(_ context.Context, token string) (Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ok := p.sessions[token]
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	ident, ok := p.identities[id]
	if !ok {
		return Identity{}, ErrNotFound
	}
	return ident, nil
}

// SignOut invalidates the session token and publishes the signed-out state.
func (p *MemoryProvider) SignOut(_ context.Context, sess Session) error {
	p.mu.Lock()
	delete(p.sessions, sess.Token)
	p.mu.Unlock()

	p.publish(nil)
	return nil
}

// DeleteIdentity removes the identity record and every session it holds.
func (p *MemoryProvider) DeleteIdentity(_ context.Context, sess Session) error {
	p.mu.Lock()
	ident, ok := p.identities[sess.Identity.ID]
	if !ok {
		p.mu.Unlock()
		return ErrNotFound
	}
	delete(p.identities, ident.ID)
	delete(p.byPhone, ident.PhoneNumber)
	for token, id := range p.sessions {
		if id == ident.ID {
			delete(p.sessions, token)
		}
	}
	p.mu.Unlock()

	p.publish(nil)
	return nil
}

// Exists reports whether an identity record remains for the id. Test helper.
func (p *MemoryProvider) Exists(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.identities[id]
	return ok
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
