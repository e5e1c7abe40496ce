package in

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vertexpay/core/components/identity/internal/domain/user"
	"github.com/vertexpay/core/components/identity/internal/middleware/authextractor"
	"github.com/vertexpay/core/components/identity/internal/services/apikeys"
	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/nethttp"
)

// ApiKeyHandler exposes admin-guarded api-key issuance, listing, and
// revocation (§4.7, §6.2).
type ApiKeyHandler struct {
	ApiKeys *apikeys.Service
}

func requireAdmin(c *fiber.Ctx) (authextractor.Principal, error) {
	principal, ok := authextractor.FromContext(c)
	if !ok || !principal.IsUser() || principal.Role != string(user.RoleAdmin) {
		return authextractor.Principal{}, apperr.ForbiddenError{
			Code: "ADMIN_REQUIRED", Title: "Admin required", Message: "this route requires an admin user",
		}
	}

	return principal, nil
}

type issueApiKeyInput struct {
	EnvironmentID string `json:"environment_id"`
}

type issueApiKeyResponse struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	CreatedAt string `json:"created_at"`
}

// Issue mints a new API key, optionally scoped to one environment (§6.2).
func (h *ApiKeyHandler) Issue(i any, c *fiber.Ctx) error {
	principal, err := requireAdmin(c)
	if err != nil {
		return nethttp.WithError(c, err)
	}

	payload := i.(*issueApiKeyInput)

	issued, err := h.ApiKeys.Issue(c.UserContext(), principal.BusinessID, payload.EnvironmentID, principal.UserID)
	if err != nil {
		return nethttp.WithError(c, err)
	}

	return nethttp.Created(c, issueApiKeyResponse{
		ID:        issued.ApiKey.ID,
		Key:       issued.Plaintext,
		CreatedAt: issued.ApiKey.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// List lists the caller's business's API keys (§6.2).
func (h *ApiKeyHandler) List(c *fiber.Ctx) error {
	principal, err := requireAdmin(c)
	if err != nil {
		return nethttp.WithError(c, err)
	}

	keys, err := h.ApiKeys.List(c.UserContext(), principal.BusinessID)
	if err != nil {
		return nethttp.WithError(c, err)
	}

	return nethttp.OK(c, keys)
}

// Revoke revokes an API key scoped to the caller's business (§6.2).
func (h *ApiKeyHandler) Revoke(c *fiber.Ctx) error {
	principal, err := requireAdmin(c)
	if err != nil {
		return nethttp.WithError(c, err)
	}

	if err := h.ApiKeys.Revoke(c.UserContext(), principal.BusinessID, c.Params("id")); err != nil {
		return nethttp.WithError(c, err)
	}

	return nethttp.NoContent(c)
}
