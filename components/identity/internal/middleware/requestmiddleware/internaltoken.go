// Package requestmiddleware holds Identity's route-level guards that don't
// belong to the dual-credential extractor: the internal-service-token
// allow-list in front of login/register (§6.1).
package requestmiddleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/appcontext"
	"github.com/vertexpay/core/pkg/nethttp"
)

// InternalTokenAllowlist guards sensitive routes (login, register) behind
// a configured X-Internal-Service-Token. An empty allow-list disables the
// guard entirely; a non-empty one rejects any request without a matching
// token with a distinct UnrecognizedSource error (§6.1).
type InternalTokenAllowlist struct {
	tokens map[string]struct{}
}

// NewInternalTokenAllowlist builds an allow-list from a comma-separated
// configuration value. An empty csv yields a disabled guard.
func NewInternalTokenAllowlist(csv string) *InternalTokenAllowlist {
	a := &InternalTokenAllowlist{tokens: make(map[string]struct{})}

	for _, raw := range strings.Split(csv, ",") {
		tok := strings.TrimSpace(raw)
		if tok != "" {
			a.tokens[tok] = struct{}{}
		}
	}

	return a
}

// Guard rejects requests lacking a matching X-Internal-Service-Token when
// the allow-list is non-empty; it is a no-op otherwise.
func (a *InternalTokenAllowlist) Guard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(a.tokens) == 0 {
			return c.Next()
		}

		if _, ok := a.tokens[c.Get(nethttp.HeaderInternalToken)]; ok {
			return c.Next()
		}

		appcontext.NewLoggerFromContext(c.UserContext()).Errorf(
			"rejected request to %s from unrecognized source (correlation_id=%s)", c.Path(), nethttp.CorrelationID(c))

		return nethttp.WithError(c, apperr.UnrecognizedSourceError{
			Code: "UNRECOGNIZED_SOURCE", Title: "Unrecognized source", Message: "this route requires a valid internal service token",
		})
	}
}
