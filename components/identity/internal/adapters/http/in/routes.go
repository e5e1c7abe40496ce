package in

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/vertexpay/core/components/identity/internal/middleware/requestmiddleware"
	"github.com/vertexpay/core/pkg/appcontext"
	"github.com/vertexpay/core/pkg/mlog"
	"github.com/vertexpay/core/pkg/nethttp"
	"github.com/vertexpay/core/pkg/ratelimit"
)

// NewRouter registers Identity's §6.2 routes. auth guards every admin/me
// route via the dual-credential extractor; authRateLimiter and proxies are
// constructed once in bootstrap and shared across requests.
func NewRouter(
	logger mlog.Logger,
	auth fiber.Handler,
	internalTokens *requestmiddleware.InternalTokenAllowlist,
	authRateLimiter ratelimit.Limiter,
	proxies *nethttp.TrustedProxies,
	business *BusinessHandler,
	authHandler *AuthHandler,
	passwordReset *PasswordResetHandler,
	betaHandler *BetaHandler,
	users *UserHandler,
	apiKeys *ApiKeyHandler,
) *fiber.App {
	f := fiber.New(fiber.Config{DisableStartupMessage: true})

	f.Use(cors.New())
	f.Use(nethttp.WithCorrelationID())
	f.Use(func(c *fiber.Ctx) error {
		ctx := appcontext.ContextWithLogger(c.UserContext(), logger)
		c.SetUserContext(ctx)

		return c.Next()
	})

	f.Get("/health", nethttp.Ping)

	sensitiveThrottle := nethttp.WithRateLimit(authRateLimiter, proxies)
	guard := internalTokens.Guard()

	f.Post("/api/v1/business/register", guard, nethttp.WithBody(new(registerBusinessInput), business.Register))

	f.Post("/api/v1/auth/login", guard, sensitiveThrottle, nethttp.WithBody(new(loginInput), authHandler.Login))
	f.Post("/api/v1/auth/refresh", nethttp.WithBody(new(refreshInput), authHandler.Refresh))
	f.Post("/api/v1/auth/revoke", nethttp.WithBody(new(revokeInput), authHandler.Revoke))

	f.Post("/api/v1/auth/password-reset/request", sensitiveThrottle, nethttp.WithBody(new(passwordResetRequestInput), passwordReset.Request))
	f.Post("/api/v1/auth/password-reset/reset", sensitiveThrottle, nethttp.WithBody(new(passwordResetConsumeInput), passwordReset.Reset))

	f.Post("/api/v1/beta/apply", sensitiveThrottle, nethttp.WithBody(new(betaApplyInput), betaHandler.Apply))

	f.Post("/api/v1/users", auth, nethttp.WithBody(new(createUserInput), users.CreateUser))
	f.Get("/api/v1/users", auth, users.ListUsers)

	f.Post("/api/v1/api-keys", auth, nethttp.WithBody(new(issueApiKeyInput), apiKeys.Issue))
	f.Get("/api/v1/api-keys", auth, apiKeys.List)
	f.Post("/api/v1/api-keys/:id/revoke", auth, apiKeys.Revoke)

	f.Get("/api/v1/me", auth, authHandler.Me)

	return f
}
