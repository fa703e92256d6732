package deletion

import (
	"context"
	"testing"
)

func TestFlowHappyPath(t *testing.T) {
	f := newFixture(t, 11)
	ctx := context.Background()

	flow := NewFlow(f.provider, f.cascade(nil, nil), f.sess)
	if flow.State() != StateInitial {
		t.Fatalf("expected INITIAL, got %s", flow.State())
	}

	// Verification must not open before the second confirmation action.
	flow.RequestDeletion()
	if flow.State() != StateInitial {
		t.Fatalf("one click must not open verification, got %s", flow.State())
	}
	if err := flow.BeginVerification(ctx, "proof"); err == nil {
		t.Fatalf("verification must be rejected before confirmation")
	}

	flow.RequestDeletion()
	if flow.State() != StateVerifyPhone {
		t.Fatalf("expected VERIFY_PHONE, got %s", flow.State())
	}

	if err := flow.BeginVerification(ctx, "proof"); err != nil {
		t.Fatalf("begin verification: %v", err)
	}
	if flow.State() != StateVerifyCode {
		t.Fatalf("expected VERIFY_CODE, got %s", flow.State())
	}
	if f.notifier.last.Destination != "+15550100" {
		t.Fatalf("the code must go to the account's own number, got %s", f.notifier.last.Destination)
	}

	if err := flow.SubmitCode(ctx, f.notifier.last.Body); err != nil {
		t.Fatalf("submit code: %v", err)
	}
	if flow.State() != StateDeleted {
		t.Fatalf("expected DELETED, got %s", flow.State())
	}
	if len(flow.Results) != 4 {
		t.Fatalf("expected 4 step results, got %d", len(flow.Results))
	}
	if f.provider.Exists(f.sess.Identity.ID) {
		t.Fatalf("expected the identity gone")
	}
	if f.objects.Len() != 0 {
		t.Fatalf("expected all objects gone")
	}
}

func TestFlowRejectsEmptyCode(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	flow := NewFlow(f.provider, f.cascade(nil, nil), f.sess)
	flow.RequestDeletion()
	flow.RequestDeletion()
	if err := flow.BeginVerification(ctx, "proof"); err != nil {
		t.Fatalf("begin verification: %v", err)
	}

	if err := flow.SubmitCode(ctx, ""); err == nil {
		t.Fatalf("expected an empty code to be rejected")
	}
	if flow.Message != MsgCodeRequired {
		t.Fatalf("expected %q, got %q", MsgCodeRequired, flow.Message)
	}
	if flow.State() != StateVerifyCode {
		t.Fatalf("the flow must wait for another attempt, got %s", flow.State())
	}
}

func TestFlowWrongCodeKeepsState(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	flow := NewFlow(f.provider, f.cascade(nil, nil), f.sess)
	flow.RequestDeletion()
	flow.RequestDeletion()
	if err := flow.BeginVerification(ctx, "proof"); err != nil {
		t.Fatalf("begin verification: %v", err)
	}

	wrong := "000000"
	if f.notifier.last.Body == wrong {
		wrong = "000001"
	}
	if err := flow.SubmitCode(ctx, wrong); err == nil {
		t.Fatalf("expected re-authentication to fail")
	}
	if flow.Message != MsgDeleteFailed {
		t.Fatalf("expected %q, got %q", MsgDeleteFailed, flow.Message)
	}
	if flow.State() != StateVerifyCode {
		t.Fatalf("expected VERIFY_CODE, got %s", flow.State())
	}

	// Nothing was deleted.
	if !f.provider.Exists(f.sess.Identity.ID) {
		t.Fatalf("identity must survive a failed attempt")
	}

	// The right code still finishes the deletion.
	if err := flow.SubmitCode(ctx, f.notifier.last.Body); err != nil {
		t.Fatalf("retry with the right code: %v", err)
	}
	if flow.State() != StateDeleted {
		t.Fatalf("expected DELETED, got %s", flow.State())
	}
}

func TestFlowSendFailureReturnsToInitial(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	flow := NewFlow(f.provider, f.cascade(nil, nil), f.sess)
	flow.RequestDeletion()
	flow.RequestDeletion()

	// An empty proof fails the human check.
	if err := flow.BeginVerification(ctx, ""); err == nil {
		t.Fatalf("expected verification to fail")
	}
	if flow.State() != StateInitial {
		t.Fatalf("expected INITIAL after a send failure, got %s", flow.State())
	}
	if flow.Message != MsgSendFailed {
		t.Fatalf("expected %q, got %q", MsgSendFailed, flow.Message)
	}

	// Intent was reset with it; a fresh double confirmation is required.
	flow.RequestDeletion()
	if err := flow.BeginVerification(ctx, "proof"); err == nil {
		t.Fatalf("verification must not open on a single confirmation")
	}
	if flow.State() == StateVerifyCode {
		t.Fatalf("expected verification to stay closed, got %s", flow.State())
	}
}

func TestFlowCancelClearsVerification(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	flow := NewFlow(f.provider, f.cascade(nil, nil), f.sess)
	flow.RequestDeletion()
	flow.RequestDeletion()
	if err := flow.BeginVerification(ctx, "proof"); err != nil {
		t.Fatalf("begin verification: %v", err)
	}

	flow.Cancel()
	if flow.State() != StateInitial {
		t.Fatalf("expected INITIAL after cancel, got %s", flow.State())
	}

	// The previous confirmation does not linger.
	flow.RequestDeletion()
	if flow.State() != StateInitial {
		t.Fatalf("cancel must reset the two-step confirmation, got %s", flow.State())
	}
	flow.RequestDeletion()
	if flow.State() != StateVerifyPhone {
		t.Fatalf("expected VERIFY_PHONE, got %s", flow.State())
	}
}

func TestFlowFatalCascadeStaysAtCode(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	cascade := f.cascade(nil, failingProvider{Provider: f.provider})
	flow := NewFlow(f.provider, cascade, f.sess)
	flow.RequestDeletion()
	flow.RequestDeletion()
	if err := flow.BeginVerification(ctx, "proof"); err != nil {
		t.Fatalf("begin verification: %v", err)
	}

	if err := flow.SubmitCode(ctx, f.notifier.last.Body); err == nil {
		t.Fatalf("expected the cascade to fail")
	}
	if flow.State() != StateVerifyCode {
		t.Fatalf("a fatal cascade must keep the flow retryable, got %s", flow.State())
	}
	if flow.Message != MsgDeleteFailed {
		t.Fatalf("expected %q, got %q", MsgDeleteFailed, flow.Message)
	}
	if len(flow.Results) != 4 {
		t.Fatalf("step results must still be recorded, got %d", len(flow.Results))
	}

	// Cleanup already performed is not rolled back.
	if f.objects.Len() != 0 {
		t.Fatalf("expected objects already deleted to stay deleted")
	}
}
