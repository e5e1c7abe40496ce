package in

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vertexpay/core/components/identity/internal/domain/user"
	"github.com/vertexpay/core/components/identity/internal/middleware/authextractor"
	"github.com/vertexpay/core/components/identity/internal/services/registration"
	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/nethttp"
)

// UserHandler exposes admin-guarded user creation and listing (§6.2).
type UserHandler struct {
	Registration *registration.Service
	Users        user.Repository
}

type createUserInput struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"omitempty,oneof=admin user"`
}

// CreateUser adds a user to the caller's business/environment, requiring
// the caller to be an admin (§4.7 Create user, §6.2 admin-guarded).
func (h *UserHandler) CreateUser(i any, c *fiber.Ctx) error {
	principal, ok := authextractor.FromContext(c)
	if !ok || !principal.IsUser() || principal.Role != string(user.RoleAdmin) {
		return nethttp.WithError(c, apperr.ForbiddenError{
			Code: "ADMIN_REQUIRED", Title: "Admin required", Message: "this route requires an admin user",
		})
	}

	payload := i.(*createUserInput)

	role := user.Role(payload.Role)
	if role == "" {
		role = user.RoleUser
	}

	created, err := h.Registration.CreateUser(c.UserContext(), registration.CreateUserInput{
		BusinessID:      principal.BusinessID,
		EnvironmentID:   principal.EnvironmentID,
		FirstName:       payload.FirstName,
		LastName:        payload.LastName,
		Email:           payload.Email,
		Password:        payload.Password,
		Role:            role,
		CreatedByUserID: principal.UserID,
	})
	if err != nil {
		return nethttp.WithError(c, err)
	}

	return nethttp.Created(c, created)
}

// ListUsers lists users in the caller's business/environment (§6.2).
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	principal, ok := authextractor.FromContext(c)
	if !ok || !principal.IsUser() || principal.Role != string(user.RoleAdmin) {
		return nethttp.WithError(c, apperr.ForbiddenError{
			Code: "ADMIN_REQUIRED", Title: "Admin required", Message: "this route requires an admin user",
		})
	}

	users, err := h.Users.List(c.UserContext(), user.Filter{
		BusinessID:    principal.BusinessID,
		EnvironmentID: principal.EnvironmentID,
		Page:          c.QueryInt("page", 1),
		PerPage:       c.QueryInt("per_page", 20),
	})
	if err != nil {
		return nethttp.WithError(c, apperr.NewInternalError(err))
	}

	return nethttp.OK(c, users)
}
