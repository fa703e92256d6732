// Package login implements the phone-verification sign-in flow.
package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fixmyhinge/fixmyhinge/internal/identity"
	"github.com/fixmyhinge/fixmyhinge/internal/profile"
)

// Step is the flow's tagged state. Transitions are linear; there is no back
// transition.
type Step int

const (
	StepPhone Step = iota
	StepCode
	StepName
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepPhone:
		return "PHONE"
	case StepCode:
		return "CODE"
	case StepName:
		return "NAME"
	case StepDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// CountryCode is one entry of the fixed country selector. Selecting one only
// changes the prefix concatenated to the phone field.
type CountryCode struct {
	Code    string
	Country string
}

// CountryCodes is the fixed enumerable set offered by the phone step.
var CountryCodes = []CountryCode{
	{Code: "+1", Country: "US"},
	{Code: "+44", Country: "UK"},
	{Code: "+61", Country: "AU"},
}

// LookupCountryCode finds a country entry by its calling code.
func LookupCountryCode(code string) (CountryCode, bool) {
	for _, cc := range CountryCodes {
		if cc.Code == code {
			return cc, true
		}
	}
	return CountryCode{}, false
}

// FormatNumber builds the full phone number submitted to the provider.
// Separators in the entered number are stripped, only its digits count.
func FormatNumber(cc CountryCode, entered string) string {
	return cc.Code + stripNonDigits(entered)
}

// User-facing messages. Provider-internal error detail never reaches the user.
const (
	MsgSendFailed   = "Failed to send verification code. Please try again."
	MsgInvalidCode  = "Invalid verification code. Please try again."
	MsgSignupFailed = "Failed to complete signup. Please try again."
)

// Client-side validation errors; these never reach the network.
var (
	ErrCodeIncomplete = errors.New("login: code must be exactly 6 digits")
	ErrNameRequired   = errors.New("login: name is required")
)

// Flow drives the three-step sign-in wizard against the identity provider and
// the profile document store. The step value is explicit so the machine can
// be tested without any UI harness.
type Flow struct {
	provider identity.Provider
	profiles profile.Repository

	step        Step
	phoneNumber string
	challenge   identity.Challenge
	sess        identity.Session

	// Message is the current user-facing error, empty when the last
	// submission succeeded.
	Message string
}

// NewFlow starts a flow at the phone step.
func NewFlow(provider identity.Provider, profiles profile.Repository) *Flow {
	return &Flow{provider: provider, profiles: profiles, step: StepPhone}
}

// Step returns the flow's current state.
func (f *Flow) Step() Step { return f.step }

// Session returns the authenticated session once the flow is done.
func (f *Flow) Session() identity.Session { return f.sess }

// SubmitPhone combines the country prefix with the entered digits and asks
// the provider for a one-time code. Failure of any kind keeps the flow at
// the phone step with a generic retry message.
func (f *Flow) SubmitPhone(ctx context.Context, cc CountryCode, digits string, proof identity.Proof) error {
	if f.step != StepPhone {
		return fmt.Errorf("login: phone submitted in step %s", f.step)
	}

	full := FormatNumber(cc, digits)
	ch, err := f.provider.InitiateChallenge(ctx, full, proof)
	if err != nil {
		f.Message = MsgSendFailed
		return err
	}

	f.phoneNumber = full
	f.challenge = ch
	f.step = StepCode
	f.Message = ""
	return nil
}

// SubmitCode confirms the pending challenge. On success the flow completes if
// a profile document already exists (merging last-login), or moves to the
// name step when it does not. On failure the flow stays at the code step; the
// entered code is cleared only by the user.
func (f *Flow) SubmitCode(ctx context.Context, code string) error {
	if f.step != StepCode {
		return fmt.Errorf("login: code submitted in step %s", f.step)
	}
	if len(stripNonDigits(code)) != CodeLength || len(code) != CodeLength {
		return ErrCodeIncomplete
	}

	sess, err := f.provider.Confirm(ctx, f.challenge, code)
	if err != nil {
		f.Message = MsgInvalidCode
		return err
	}
	f.sess = sess

	_, err = f.profiles.Get(ctx, sess.Identity.ID)
	switch {
	case errors.Is(err, profile.ErrNotFound):
		f.step = StepName
		f.Message = ""
		return nil
	case err != nil:
		f.Message = MsgInvalidCode
		return err
	}

	now := time.Now().UTC()
	if err := f.profiles.Merge(ctx, sess.Identity.ID, profile.Patch{LastLoginAt: &now}); err != nil {
		f.Message = MsgInvalidCode
		return err
	}

	f.step = StepDone
	f.Message = ""
	return nil
}

// SubmitName persists the new identity's profile document and completes the
// flow.
func (f *Flow) SubmitName(ctx context.Context, name string) error {
	if f.step != StepName {
		return fmt.Errorf("login: name submitted in step %s", f.step)
	}
	if name == "" {
		return ErrNameRequired
	}

	now := time.Now().UTC()
	err := f.profiles.Create(ctx, profile.Document{
		ID:          f.sess.Identity.ID,
		PhoneNumber: f.phoneNumber,
		Name:        name,
		CreatedAt:   now,
		LastLoginAt: now,
	})
	if err != nil {
		f.Message = MsgSignupFailed
		return err
	}

	f.step = StepDone
	f.Message = ""
	return nil
}
