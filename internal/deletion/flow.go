package deletion

import (
	"context"
	"errors"
	"fmt"

	"github.com/fixmyhinge/fixmyhinge/internal/identity"
)

// State is the deletion flow's tagged state.
type State int

const (
	StateInitial State = iota
	StateVerifyPhone
	StateVerifyCode
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StateVerifyPhone:
		return "VERIFY_PHONE"
	case StateVerifyCode:
		return "VERIFY_CODE"
	case StateDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// User-facing messages.
const (
	MsgSendFailed   = "Failed to send verification code. Please try again."
	MsgDeleteFailed = "Failed to delete account. Please try again."
	MsgCodeRequired = "Please enter the verification code"
)

// ErrNotConfirmed guards the two-step intent confirmation: verification can
// only begin after an explicit confirmation action.
var ErrNotConfirmed = errors.New("deletion: intent not confirmed")

// Flow drives the re-verify-then-delete state machine for one authenticated
// session. Cancel is available from both verify states and clears all
// transient verification state.
type Flow struct {
	provider identity.Provider
	cascade  *Cascade

	state     State
	confirmed bool
	sess      identity.Session
	challenge identity.Challenge

	// Message is the current user-facing error, empty when the last action
	// succeeded.
	Message string
	// Results holds the cascade's step results once deletion ran.
	Results []StepResult
}

// NewFlow starts a deletion flow for the session.
func NewFlow(provider identity.Provider, cascade *Cascade, sess identity.Session) *Flow {
	return &Flow{provider: provider, cascade: cascade, sess: sess, state: StateInitial}
}

// State returns the flow's current state.
func (f *Flow) State() State { return f.state }

// RequestDeletion records the first click of the two-step confirmation and
// moves to the phone-verification state. The destructive path stays closed
// until BeginVerification is called with a proof.
func (f *Flow) RequestDeletion() {
	if f.state != StateInitial {
		return
	}
	if !f.confirmed {
		f.confirmed = true
		return
	}
	f.state = StateVerifyPhone
	f.Message = ""
}

// BeginVerification re-sends a one-time code to the session's own phone
// number, gated by the human-verification proof. Failure returns the flow to
// the initial state with a generic retry message.
func (f *Flow) BeginVerification(ctx context.Context, proof identity.Proof) error {
	if f.state != StateVerifyPhone {
		return fmt.Errorf("deletion: verification started in state %s", f.state)
	}
	if !f.confirmed {
		return ErrNotConfirmed
	}

	ch, err := f.provider.InitiateChallenge(ctx, f.sess.Identity.PhoneNumber, proof)
	if err != nil {
		f.state = StateInitial
		f.confirmed = false
		f.Message = MsgSendFailed
		return err
	}

	f.challenge = ch
	f.state = StateVerifyCode
	f.Message = ""
	return nil
}

// SubmitCode re-authenticates with {verification handle, code} and, on
// success, runs the deletion cascade. A fatal cascade result keeps the flow
// at the code state with a retry message; nothing already deleted is rolled
// back.
func (f *Flow) SubmitCode(ctx context.Context, code string) error {
	if f.state != StateVerifyCode {
		return fmt.Errorf("deletion: code submitted in state %s", f.state)
	}
	if code == "" {
		f.Message = MsgCodeRequired
		return errors.New("deletion: empty code")
	}

	fresh, err := f.provider.Reauthenticate(ctx, f.sess, f.challenge, code)
	if err != nil {
		f.Message = MsgDeleteFailed
		return err
	}
	f.sess = fresh

	results, err := f.cascade.Run(ctx, f.sess)
	f.Results = results
	if err != nil {
		f.Message = MsgDeleteFailed
		return err
	}

	f.state = StateDeleted
	f.Message = ""
	return nil
}

// Cancel returns to the initial state from either verify state, clearing all
// transient verification state.
func (f *Flow) Cancel() {
	if f.state != StateVerifyPhone && f.state != StateVerifyCode {
		return
	}
	f.state = StateInitial
	f.confirmed = false
	f.challenge = identity.Challenge{}
	f.Message = ""
}
