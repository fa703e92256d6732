package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixmyhinge/fixmyhinge/internal/identity"
	"github.com/fixmyhinge/fixmyhinge/internal/middleware"
	"github.com/fixmyhinge/fixmyhinge/internal/profile"
)

// RegisterProfileRoutes wires the rating list. A bearer token is optional:
// anonymous visitors see everyone, signed-in viewers are excluded from their
// own list.
func RegisterProfileRoutes(r fiber.Router, h *profile.Handler, provider identity.Provider) {
	r.Get("/profiles", middleware.OptionalBearerAuth(provider), h.List)
}
