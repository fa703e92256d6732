package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fixmyhinge/fixmyhinge/internal/identity"
)

// Locals keys populated by the auth middlewares.
const (
	LocalsIdentity = "identity"
	LocalsToken    = "token"
)

// BearerAuth resolves the opaque platform token from the Authorization header
// into an identity. Tokens are the platform's; they are never minted or
// parsed locally, only looked up.
func BearerAuth(provider identity.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}

		ident, err := provider.Lookup(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid session")
		}

		c.Locals(LocalsIdentity, ident)
		c.Locals(LocalsToken, token)
		return c.Next()
	}
}

// OptionalBearerAuth resolves the identity when a valid token is present and
// passes the request through anonymously otherwise. The rating list uses it:
// signed-in viewers are excluded from their own listing, anonymous viewers
// see everything.
func OptionalBearerAuth(provider identity.Provider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Next()
		}
		if ident, err := provider.Lookup(c.UserContext(), token); err == nil {
			c.Locals(LocalsIdentity, ident)
			c.Locals(LocalsToken, token)
		}
		return c.Next()
	}
}

// IdentityFrom extracts the authenticated identity placed by BearerAuth.
func IdentityFrom(c *fiber.Ctx) (identity.Identity, bool) {
	ident, ok := c.Locals(LocalsIdentity).(identity.Identity)
	return ident, ok
}

// SessionFrom rebuilds the identity.Session for the request.
func SessionFrom(c *fiber.Ctx) (identity.Session, bool) {
	ident, ok := IdentityFrom(c)
	if !ok {
		return identity.Session{}, false
	}
	token, _ := c.Locals(LocalsToken).(string)
	return identity.Session{Identity: ident, Token: token}, true
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authz := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return "", false
	}
	return strings.TrimSpace(authz[len("Bearer "):]), true
}
