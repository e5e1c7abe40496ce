package in

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vertexpay/core/components/identity/internal/services/beta"
	"github.com/vertexpay/core/pkg/nethttp"
)

// BetaHandler exposes the private-beta application route (§6.2).
type BetaHandler struct {
	Beta *beta.Service
}

type betaApplyInput struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Company string `json:"company" validate:"required"`
	UseCase string `json:"use_case" validate:"required"`
}

func (h *BetaHandler) Apply(i any, c *fiber.Ctx) error {
	payload := i.(*betaApplyInput)

	_, err := h.Beta.Apply(c.UserContext(), beta.Input{
		Name:    payload.Name,
		Email:   payload.Email,
		Company: payload.Company,
		UseCase: payload.UseCase,
	})
	if err != nil {
		return nethttp.WithError(c, err)
	}

	return nethttp.Created(c, genericMessageResponse{Message: "application received, we'll be in touch shortly"})
}
