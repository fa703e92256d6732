package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixmyhinge/fixmyhinge/internal/deletion"
	"github.com/fixmyhinge/fixmyhinge/internal/identity"
	"github.com/fixmyhinge/fixmyhinge/internal/middleware"
)

// RegisterAccountRoutes wires the two-phase account deletion endpoints.
func RegisterAccountRoutes(r fiber.Router, h *deletion.Handler, provider identity.Provider, rateLimiter fiber.Handler) {
	group := r.Group("/account/delete", middleware.BearerAuth(provider))
	if rateLimiter != nil {
		group.Post("/init", rateLimiter, h.Init)
	} else {
		group.Post("/init", h.Init)
	}
	group.Post("/confirm", h.Confirm)
}
