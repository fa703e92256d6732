package deletion

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/fixmyhinge/fixmyhinge/internal/identity"
	"github.com/fixmyhinge/fixmyhinge/internal/middleware"
	"github.com/fixmyhinge/fixmyhinge/internal/session"
)

// Handler exposes the two-phase account deletion over HTTP: init re-sends a
// code to the caller's own number, confirm redeems it and runs the cascade.
type Handler struct {
	provider identity.Provider
	cascade  *Cascade
	logger   *slog.Logger
}

// NewHandler builds a deletion handler.
func NewHandler(provider identity.Provider, cascade *Cascade, logger *slog.Logger) *Handler {
	return &Handler{provider: provider, cascade: cascade, logger: logger}
}

type initRequest struct {
	RecaptchaToken string `json:"recaptcha_token"`
}

// Init starts re-verification for the authenticated identity.
func (h *Handler) Init(c *fiber.Ctx) error {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req initRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	ch, err := h.provider.InitiateChallenge(c.UserContext(), sess.Identity.PhoneNumber, identity.Proof(req.RecaptchaToken))
	if err != nil {
		h.logger.Warn("deletion verification failed to start", "user_id", sess.Identity.ID, "error", err)
		return fiber.NewError(http.StatusBadRequest, MsgSendFailed)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"session_info": ch.Handle})
}

type confirmRequest struct {
	SessionInfo string `json:"session_info"`
	Code        string `json:"code"`
}

// Confirm re-authenticates with the code and executes the deletion cascade.
// The response reports each step's named result; nothing is rolled back on a
// fatal identity-step failure.
func (h *Handler) Confirm(c *fiber.Ctx) error {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req confirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Code == "" {
		return fiber.NewError(http.StatusBadRequest, MsgCodeRequired)
	}

	fresh, err := h.provider.Reauthenticate(c.UserContext(), sess, identity.Challenge{Handle: req.SessionInfo}, req.Code)
	if err != nil {
		h.logger.Warn("deletion re-authentication failed", "user_id", sess.Identity.ID, "error", err)
		return fiber.NewError(http.StatusUnauthorized, MsgDeleteFailed)
	}

	results, err := h.cascade.Run(c.UserContext(), fresh)
	if err != nil {
		h.logger.Error("deletion cascade failed", "user_id", sess.Identity.ID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": MsgDeleteFailed,
			"steps": results,
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"status":   "deleted",
		"steps":    results,
		"redirect": session.LoginPath,
	})
}
