// Package sessionauth verifies the HMAC-signed session JWTs Identity issues
// (§4.8; HMAC over asymmetric, since both verifier services
// are operated by the same team and share a secret store already). Accounts
// and Identity's own internal routes both trust this token without a
// synchronous callback to Identity for every request.
package sessionauth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/nethttp"
)

// Claims is the session token payload Identity mints at login (§4.8).
type Claims struct {
	jwt.RegisteredClaims
	OrganizationID string `json:"organization_id"`
	Environment    string `json:"environment"`
	UserID         string `json:"user_id"`
	Role           string `json:"role"`
}

// Principal is the authenticated caller, stashed on the fiber.Ctx for
// handlers to read via FromContext.
type Principal struct {
	OrganizationID string
	Environment    string
	UserID         string
	Role           string
}

const localsKey = "sessionauth.principal"

// Middleware validates the Bearer session token on every request, rejecting
// missing or invalid credentials with HTTP 401 before the route handler
// runs.
func Middleware(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return nethttp.WithError(c, apperr.UnauthorizedError{
				Code: "MISSING_CREDENTIAL", Title: "Missing credential", Message: "a Bearer session token is required",
			})
		}

		claims := &Claims{}

		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrTokenSignatureInvalid
			}

			return secret, nil
		})
		if err != nil || !token.Valid {
			return nethttp.WithError(c, apperr.UnauthorizedError{
				Code: "INVALID_CREDENTIAL", Title: "Invalid credential", Message: "session token is invalid or expired",
			})
		}

		c.Locals(localsKey, Principal{
			OrganizationID: claims.OrganizationID,
			Environment:    claims.Environment,
			UserID:         claims.UserID,
			Role:           claims.Role,
		})

		return c.Next()
	}
}

// FromContext recovers the Principal a Middleware call attached to c.
func FromContext(c *fiber.Ctx) (Principal, bool) {
	p, ok := c.Locals(localsKey).(Principal)
	return p, ok
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}

	return header[len(prefix):]
}
