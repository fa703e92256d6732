package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fixmyhinge/fixmyhinge/internal/identity"
	"github.com/fixmyhinge/fixmyhinge/internal/intake"
	"github.com/fixmyhinge/fixmyhinge/internal/middleware"
)

// RegisterPhotoRoutes wires the batch photo upload endpoint.
func RegisterPhotoRoutes(r fiber.Router, h *intake.Handler, provider identity.Provider) {
	r.Post("/photos", middleware.BearerAuth(provider), h.Upload)
}
