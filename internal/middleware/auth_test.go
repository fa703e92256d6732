package middleware

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/fixmyhinge/fixmyhinge/internal/identity"
	"github.com/fixmyhinge/fixmyhinge/internal/notification"
)

type captureNotifier struct {
	last notification.Message
}

func (n *captureNotifier) Send(_ context.Context, msg notification.Message) error {
	n.last = msg
	return nil
}

func signedInProvider(t *testing.T) (*identity.MemoryProvider, identity.Session) {
	t.Helper()
	ctx := context.Background()

	notifier := &captureNotifier{}
	provider := identity.NewMemoryProvider(notifier)

	ch, err := provider.InitiateChallenge(ctx, "+15550100", "proof")
	if err != nil {
		t.Fatalf("initiate challenge: %v", err)
	}
	sess, err := provider.Confirm(ctx, ch, notifier.last.Body)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	return provider, sess
}

func TestBearerAuthResolvesIdentity(t *testing.T) {
	provider, sess := signedInProvider(t)

	app := fiber.New()
	app.Get("/me", BearerAuth(provider), func(c *fiber.Ctx) error {
		ident, ok := IdentityFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusInternalServerError, "identity missing")
		}
		return c.JSON(fiber.Map{"id": ident.ID})
	})

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+sess.Token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected %d got %d", fiber.StatusOK, resp.StatusCode)
	}
}

func TestBearerAuthRejectsBadTokens(t *testing.T) {
	provider, _ := signedInProvider(t)

	app := fiber.New()
	app.Get("/me", BearerAuth(provider), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("missing token: expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}

	req = httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-token")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("bad token: expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func TestOptionalBearerAuthPassesAnonymously(t *testing.T) {
	provider, _ := signedInProvider(t)

	app := fiber.New()
	app.Get("/profiles", OptionalBearerAuth(provider), func(c *fiber.Ctx) error {
		if _, ok := IdentityFrom(c); ok {
			return c.JSON(fiber.Map{"viewer": "signed-in"})
		}
		return c.JSON(fiber.Map{"viewer": "anonymous"})
	})

	req := httptest.NewRequest(fiber.MethodGet, "/profiles", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected %d got %d", fiber.StatusOK, resp.StatusCode)
	}
}
