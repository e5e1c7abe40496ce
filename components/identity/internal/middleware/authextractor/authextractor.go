// Package authextractor resolves the dual credential Identity's own
// protected routes accept — a Bearer session token or an X-Api-Key header
// — into a single uniform Principal (§4.8).
package authextractor

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vertexpay/core/components/identity/internal/domain/apikey"
	"github.com/vertexpay/core/components/identity/internal/domain/environment"
	"github.com/vertexpay/core/components/identity/internal/domain/user"
	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/keyedhash"
	"github.com/vertexpay/core/pkg/nethttp"
	"github.com/vertexpay/core/pkg/sessionauth"
)

// Principal is the authenticated caller, distinguishing a human user from
// a service api-key while sharing the same (business_id, environment_id)
// shape (§6.1 Dual credential).
type Principal struct {
	BusinessID    string
	EnvironmentID string
	UserID        string
	APIKeyID      string
	Role          string
}

// IsUser reports whether the principal authenticated as a human.
func (p Principal) IsUser() bool { return p.UserID != "" }

const localsKey = "authextractor.principal"

// Middleware resolves the caller credential: an X-Api-Key header is tried
// first, then a Bearer session token (§4.8).
func Middleware(secret []byte, apiKeys apikey.Repository, users user.Repository, environments environment.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if raw := c.Get(nethttp.HeaderAPIKey); raw != "" {
			principal, err := resolveAPIKey(ctx, apiKeys, environments, secret, raw, c.Get(nethttp.HeaderEnvironment))
			if err != nil {
				return nethttp.WithError(c, err)
			}

			c.Locals(localsKey, *principal)

			return c.Next()
		}

		raw := bearerToken(c.Get(nethttp.HeaderAuthorization))
		if raw == "" {
			return nethttp.WithError(c, apperr.UnauthorizedError{
				Code: "MISSING_CREDENTIAL", Title: "Missing credential", Message: "an X-Api-Key or Bearer session token is required",
			})
		}

		principal, err := resolveBearer(ctx, users, secret, raw, c.Get(nethttp.HeaderEnvironment))
		if err != nil {
			return nethttp.WithError(c, err)
		}

		c.Locals(localsKey, *principal)

		return c.Next()
	}
}

// FromContext recovers the Principal a Middleware call attached to c.
func FromContext(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(localsKey).(Principal)
	return p, ok
}

func resolveAPIKey(ctx context.Context, apiKeys apikey.Repository, environments environment.Repository, secret []byte, plaintext, envHeader string) (*Principal, error) {
	hash := keyedhash.Sum(secret, plaintext)

	k, err := apiKeys.FindByKeyHash(ctx, hash)
	if err != nil {
		return nil, apperr.ValidateBusinessError(apperr.ErrApiKeyNotFound, "ApiKey")
	}

	if !k.IsActive() {
		return nil, apperr.ValidateBusinessError(apperr.ErrApiKeyRevoked, "ApiKey")
	}

	environmentID, err := resolveEnvironmentID(ctx, environments, k.BusinessID, envHeader)
	if err != nil {
		return nil, err
	}

	if !k.ScopesEnvironment(environmentID) {
		return nil, apperr.ValidateBusinessError(apperr.ErrForeignEnvironment, "Environment")
	}

	_ = apiKeys.TouchLastUsed(ctx, k.ID)

	return &Principal{BusinessID: k.BusinessID, EnvironmentID: environmentID, APIKeyID: k.ID}, nil
}

func resolveBearer(ctx context.Context, users user.Repository, secret []byte, raw, envHeader string) (*Principal, error) {
	if _, err := uuid.Parse(envHeader); err != nil {
		return nil, apperr.ValidateBusinessError(apperr.ErrUnknownEnvironment, "Environment")
	}

	claims := &sessionauth.Claims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}

		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.UnauthorizedError{Code: "INVALID_CREDENTIAL", Title: "Invalid credential", Message: "session token is invalid or expired"}
	}

	u, err := users.Find(ctx, claims.UserID)
	if err != nil {
		return nil, apperr.ValidateBusinessError(apperr.ErrUserNotFound, "User")
	}

	if !u.IsActive() {
		return nil, apperr.UnauthorizedError{Code: "INVALID_CREDENTIAL", Title: "Invalid credential", Message: "session token is invalid or expired"}
	}

	if u.EnvironmentID != envHeader {
		return nil, apperr.ValidateBusinessError(apperr.ErrForeignEnvironment, "Environment")
	}

	return &Principal{BusinessID: u.BusinessID, EnvironmentID: u.EnvironmentID, UserID: u.ID, Role: string(u.Role)}, nil
}

// resolveEnvironmentID accepts either a UUID environment id or a symbolic
// sandbox/production type, resolving the latter against businessID (§4.8
// API-key header case).
func resolveEnvironmentID(ctx context.Context, environments environment.Repository, businessID, envHeader string) (string, error) {
	if envHeader == "" {
		envHeader = nethttp.EnvironmentSandbox
	}

	if _, err := uuid.Parse(envHeader); err == nil {
		return envHeader, nil
	}

	env, err := environments.FindByBusinessAndType(ctx, businessID, environment.Type(envHeader))
	if err != nil {
		return "", apperr.ValidateBusinessError(apperr.ErrUnknownEnvironment, "Environment")
	}

	return env.ID, nil
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}

	return header[len(prefix):]
}
