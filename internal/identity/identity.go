package identity

import (
	"context"
	"errors"
	"time"
)

// Identity is the authenticated principal as the hosted platform reports it.
// The unique id is assigned by the platform on first verification and never
// changes; last-login is maintained by the platform on every sign-in.
type Identity struct {
	ID          string
	PhoneNumber string
	CreatedAt   time.Time
	LastLoginAt time.Time
}

// Session pairs an identity with the opaque platform token proving it. The
// token is minted by the platform and never inspected locally.
type Session struct {
	Identity Identity
	Token    string
}

// Challenge is the opaque confirmation handle produced by initiating phone
// verification. It lives for the duration of one verification attempt.
type Challenge struct {
	Handle string
}

// Proof is a human-verification token (bot mitigation) required to initiate
// a challenge.
type Proof string

// Provider errors. Handlers map all of these onto generic user-facing retry
// messages; the distinctions exist for logging and tests.
var (
	ErrInvalidPhone     = errors.New("identity: invalid phone number")
	ErrBadProof         = errors.New("identity: human verification failed")
	ErrCodeMismatch     = errors.New("identity: verification code mismatch")
	ErrChallengeExpired = errors.New("identity: challenge expired")
	ErrInvalidToken     = errors.New("identity: session token invalid")
	ErrNotFound         = errors.New("identity: not found")
)

// Provider is the phone-based authentication surface of the hosted platform.
type Provider interface {
	// InitiateChallenge asks the platform to text a one-time code to the
	// number, gated by a human-verification proof.
	InitiateChallenge(ctx context.Context, phoneNumber string, proof Proof) (Challenge, error)

	// Confirm redeems a challenge with the user-supplied code and returns an
	// authenticated session. The platform creates the identity on first use.
	Confirm(ctx context.Context, ch Challenge, code string) (Session, error)

	// Reauthenticate re-proves an existing session ahead of a destructive
	// action by redeeming a fresh challenge sent to the session's own number.
	Reauthenticate(ctx context.Context, sess Session, ch Challenge, code string) (Session, error)

	// Lookup resolves an opaque token to its identity.
	Lookup(ctx context.Context, token string) (Identity, error)

	// SignOut invalidates the session. State observers learn about the
	// sign-out through the change stream, not from this call's return.
	SignOut(ctx context.Context, sess Session) error

	// DeleteIdentity permanently removes the identity record.
	DeleteIdentity(ctx context.Context, sess Session) error

	// Subscribe registers fn on the authentication state-change stream. fn is
	// invoked once immediately with the current identity (nil when signed
	// out) and again after every change until the returned function is
	// called.
	Subscribe(fn func(*Identity)) (unsubscribe func())
}
