package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixmyhinge/fixmyhinge/internal/identity"
	"github.com/fixmyhinge/fixmyhinge/internal/login"
	"github.com/fixmyhinge/fixmyhinge/internal/middleware"
)

// RegisterAuthRoutes wires the phone sign-in endpoints.
func RegisterAuthRoutes(r fiber.Router, h *login.Handler, provider identity.Provider, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/phone", rateLimiter, h.Phone)
	} else {
		group.Post("/phone", h.Phone)
	}
	group.Post("/verify", h.Verify)

	authed := middleware.BearerAuth(provider)
	group.Post("/profile", authed, h.CompleteProfile)
	group.Post("/logout", authed, h.Logout)
}
