package in

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vertexpay/core/components/identity/internal/middleware/authextractor"
	"github.com/vertexpay/core/components/identity/internal/services/auth"
	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/nethttp"
)

// AuthHandler exposes login/refresh/revoke/me (§4.7, §6.2).
type AuthHandler struct {
	Auth *auth.Service
}

type loginInput struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required"`
	EnvironmentID string `json:"environment_id"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
}

// Login authenticates by email+password (§4.7 Login).
func (h *AuthHandler) Login(i any, c *fiber.Ctx) error {
	payload := i.(*loginInput)

	result, err := h.Auth.Login(c.UserContext(), payload.Email, payload.Password, payload.EnvironmentID)
	if err != nil {
		return nethttp.WithError(c, err)
	}

	return nethttp.OK(c, tokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    result.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

type refreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh rotates a refresh token (§4.7 Refresh).
func (h *AuthHandler) Refresh(i any, c *fiber.Ctx) error {
	payload := i.(*refreshInput)

	tokens, err := h.Auth.Refresh(c.UserContext(), payload.RefreshToken)
	if err != nil {
		return nethttp.WithError(c, err)
	}

	return nethttp.OK(c, tokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

type revokeInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Revoke marks a session revoked; idempotent on an already-revoked session
// (§4.7 Revoke).
func (h *AuthHandler) Revoke(i any, c *fiber.Ctx) error {
	payload := i.(*revokeInput)

	if err := h.Auth.Revoke(c.UserContext(), payload.RefreshToken); err != nil {
		return nethttp.WithError(c, err)
	}

	return nethttp.NoContent(c)
}

// Me returns the caller's own user row (§4.7 me).
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := authextractor.FromContext(c)
	if !ok || !principal.IsUser() {
		return nethttp.WithError(c, apperr.UnauthorizedError{
			Code: "MISSING_CREDENTIAL", Title: "Missing credential", Message: "a Bearer session token is required",
		})
	}

	u, err := h.Auth.Me(c.UserContext(), principal.UserID, principal.EnvironmentID)
	if err != nil {
		return nethttp.WithError(c, err)
	}

	return nethttp.OK(c, u)
}
