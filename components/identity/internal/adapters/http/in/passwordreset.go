package in

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vertexpay/core/components/identity/internal/services/passwordreset"
	"github.com/vertexpay/core/pkg/nethttp"
)

// PasswordResetHandler exposes password-reset request/consume (§4.7, §6.2).
type PasswordResetHandler struct {
	PasswordReset *passwordreset.Service
}

type passwordResetRequestInput struct {
	Email string `json:"email" validate:"required,email"`
}

type genericMessageResponse struct {
	Message string `json:"message"`
}

// Request always returns the same generic message regardless of whether
// email is registered (§4.7 Password reset request, no enumeration).
func (h *PasswordResetHandler) Request(i any, c *fiber.Ctx) error {
	payload := i.(*passwordResetRequestInput)

	h.PasswordReset.Request(c.UserContext(), payload.Email)

	return nethttp.OK(c, genericMessageResponse{Message: "if the account exists, a reset email has been sent"})
}

type passwordResetConsumeInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// Reset atomically claims the token and updates the password (§4.7
// Password reset consume).
func (h *PasswordResetHandler) Reset(i any, c *fiber.Ctx) error {
	payload := i.(*passwordResetConsumeInput)

	if err := h.PasswordReset.Consume(c.UserContext(), payload.Token, payload.NewPassword); err != nil {
		return nethttp.WithError(c, err)
	}

	return nethttp.OK(c, genericMessageResponse{Message: "password updated"})
}
