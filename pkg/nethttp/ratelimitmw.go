package nethttp

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/ratelimit"
)

// WithRateLimit rejects requests once key exceeds limiter's window (§4.9).
// limiter is the Limiter interface, not either concrete backing store, so
// callers can swap InProcess for RedisLimiter without touching this
// middleware.
func WithRateLimit(limiter ratelimit.Limiter, proxies *TrustedProxies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := proxies.ClientKey(c)

		if !limiter.Allow(c.UserContext(), key) {
			return WithError(c, apperr.TooManyRequestsError{Code: "RATE_LIMITED", Title: "Too many requests", Message: "rate limit exceeded"})
		}

		return c.Next()
	}
}
