package login

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fixmyhinge/fixmyhinge/internal/identity"
	"github.com/fixmyhinge/fixmyhinge/internal/middleware"
	"github.com/fixmyhinge/fixmyhinge/internal/profile"
)

// Handler exposes the phone-verification sign-in steps over HTTP. Each
// endpoint is one transition of the wizard; the browser holds the
// confirmation handle between calls.
type Handler struct {
	provider identity.Provider
	profiles profile.Repository
	logger   *slog.Logger
}

// NewHandler builds a login handler.
func NewHandler(provider identity.Provider, profiles profile.Repository, logger *slog.Logger) *Handler {
	return &Handler{provider: provider, profiles: profiles, logger: logger}
}

type phoneRequest struct {
	CountryCode    string `json:"country_code"`
	PhoneNumber    string `json:"phone_number"`
	RecaptchaToken string `json:"recaptcha_token"`
}

// Phone initiates a verification challenge for the combined number.
func (h *Handler) Phone(c *fiber.Ctx) error {
	var req phoneRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	cc, ok := LookupCountryCode(req.CountryCode)
	if !ok {
		return fiber.NewError(http.StatusBadRequest, "unsupported country code")
	}
	if req.PhoneNumber == "" {
		return fiber.NewError(http.StatusBadRequest, "phone_number is required")
	}

	ch, err := h.provider.InitiateChallenge(c.UserContext(), FormatNumber(cc, req.PhoneNumber), identity.Proof(req.RecaptchaToken))
	if err != nil {
		h.logger.Warn("challenge initiation failed", "error", err)
		return fiber.NewError(http.StatusBadRequest, MsgSendFailed)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{"session_info": ch.Handle})
}

type verifyRequest struct {
	SessionInfo string `json:"session_info"`
	Code        string `json:"code"`
}

// Verify confirms the pending challenge. needs_profile tells the client
// whether the name step is still ahead.
func (h *Handler) Verify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if len(req.Code) != CodeLength || len(stripNonDigits(req.Code)) != CodeLength {
		return fiber.NewError(http.StatusBadRequest, "verification code must be exactly 6 digits")
	}

	sess, err := h.provider.Confirm(c.UserContext(), identity.Challenge{Handle: req.SessionInfo}, req.Code)
	if err != nil {
		h.logger.Warn("code confirmation failed", "error", err)
		return fiber.NewError(http.StatusUnauthorized, MsgInvalidCode)
	}

	needsProfile := false
	_, err = h.profiles.Get(c.UserContext(), sess.Identity.ID)
	switch {
	case errors.Is(err, profile.ErrNotFound):
		needsProfile = true
	case err != nil:
		h.logger.Error("profile lookup failed", "user_id", sess.Identity.ID, "error", err)
		return fiber.NewError(http.StatusInternalServerError, MsgInvalidCode)
	default:
		now := time.Now().UTC()
		if err := h.profiles.Merge(c.UserContext(), sess.Identity.ID, profile.Patch{LastLoginAt: &now}); err != nil {
			h.logger.Error("last-login merge failed", "user_id", sess.Identity.ID, "error", err)
			return fiber.NewError(http.StatusInternalServerError, MsgInvalidCode)
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token":         sess.Token,
		"user_id":       sess.Identity.ID,
		"phone_number":  sess.Identity.PhoneNumber,
		"needs_profile": needsProfile,
	})
}

type completeProfileRequest struct {
	Name string `json:"name"`
}

// CompleteProfile persists the new identity's profile document (the NAME step).
func (h *Handler) CompleteProfile(c *fiber.Ctx) error {
	ident, ok := middleware.IdentityFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}

	var req completeProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Name == "" {
		return fiber.NewError(http.StatusBadRequest, "name is required")
	}

	now := time.Now().UTC()
	err := h.profiles.Create(c.UserContext(), profile.Document{
		ID:          ident.ID,
		PhoneNumber: ident.PhoneNumber,
		Name:        req.Name,
		CreatedAt:   now,
		LastLoginAt: now,
	})
	if err != nil {
		h.logger.Error("profile creation failed", "user_id", ident.ID, "error", err)
		return fiber.NewError(http.StatusInternalServerError, MsgSignupFailed)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"user_id": ident.ID, "name": req.Name})
}

// Logout asks the provider to end the session. Its error is propagated, not
// swallowed.
func (h *Handler) Logout(c *fiber.Ctx) error {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	if err := h.provider.SignOut(c.UserContext(), sess); err != nil {
		return fiber.NewError(http.StatusInternalServerError, "failed to log out")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}
