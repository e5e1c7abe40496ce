package in

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vertexpay/core/components/identity/internal/services/registration"
	"github.com/vertexpay/core/pkg/nethttp"
)

// BusinessHandler exposes business registration (§4.7 Register business,
// §6.2).
type BusinessHandler struct {
	Registration *registration.Service
}

type registerBusinessInput struct {
	Name           string `json:"name" validate:"required"`
	Website        string `json:"website"`
	AdminFirstName string `json:"admin_first_name" validate:"required"`
	AdminLastName  string `json:"admin_last_name" validate:"required"`
	AdminEmail     string `json:"admin_email" validate:"required,email"`
	AdminPassword  string `json:"admin_password" validate:"required,min=8"`
}

type registerBusinessResponse struct {
	BusinessID   string `json:"business_id"`
	SandboxID    string `json:"sandbox_environment_id"`
	ProductionID string `json:"production_environment_id"`
	AdminUserID  string `json:"admin_user_id"`
}

// Register creates a business with its two environments and first admin
// user.
func (h *BusinessHandler) Register(i any, c *fiber.Ctx) error {
	payload := i.(*registerBusinessInput)

	result, err := h.Registration.Register(c.UserContext(), registration.RegisterInput{
		Name:           payload.Name,
		Website:        payload.Website,
		AdminFirstName: payload.AdminFirstName,
		AdminLastName:  payload.AdminLastName,
		AdminEmail:     payload.AdminEmail,
		AdminPassword:  payload.AdminPassword,
	})
	if err != nil {
		return nethttp.WithError(c, err)
	}

	return nethttp.Created(c, registerBusinessResponse{
		BusinessID:   result.Business.ID,
		SandboxID:    result.Sandbox.ID,
		ProductionID: result.Production.ID,
		AdminUserID:  result.Admin.ID,
	})
}
