package profile

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fixmyhinge/fixmyhinge/internal/middleware"
)

// Handler exposes the rating list.
type Handler struct {
	svc *Service
}

// NewHandler builds a profile handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List returns rateable profiles. Anonymous requests see the full filtered
// set; authenticated ones never see their own profile.
func (h *Handler) List(c *fiber.Ctx) error {
	var viewerID string
	if ident, ok := middleware.IdentityFrom(c); ok {
		viewerID = ident.ID
	}

	summaries, err := h.svc.List(c.UserContext(), viewerID)
	if err != nil {
		// One fixed phrase regardless of the underlying cause.
		return fiber.NewError(http.StatusInternalServerError, ErrListUnavailable.Error())
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"profiles": summaries})
}
