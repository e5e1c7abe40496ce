package in

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/vertexpay/core/pkg/appcontext"
	"github.com/vertexpay/core/pkg/mlog"
	"github.com/vertexpay/core/pkg/nethttp"
	"github.com/vertexpay/core/pkg/ratelimit"
)

// NewRouter registers the Accounts service's §6.1 routes. moneyLimiter and
// proxies are constructed once in bootstrap and shared across requests.
func NewRouter(logger mlog.Logger, auth fiber.Handler, moneyLimiter ratelimit.Limiter, proxies *nethttp.TrustedProxies, accounts *AccountHandler, transactions *TransactionHandler) *fiber.App {
	f := fiber.New(fiber.Config{DisableStartupMessage: true})

	f.Use(cors.New())
	f.Use(nethttp.WithCorrelationID())
	f.Use(func(c *fiber.Ctx) error {
		ctx := appcontext.ContextWithLogger(c.UserContext(), logger)
		c.SetUserContext(ctx)

		return c.Next()
	})

	f.Get("/health", nethttp.Ping)

	moneyThrottle := nethttp.WithRateLimit(moneyLimiter, proxies)

	f.Post("/accounts", auth, nethttp.WithBody(new(createAccountInput), accounts.CreateAccount))
	f.Get("/accounts", auth, accounts.GetAllAccounts)
	f.Get("/accounts/:id", auth, accounts.GetAccountByID)
	f.Patch("/accounts/:id", auth, nethttp.WithBody(new(updateAccountInput), accounts.UpdateAccount))
	f.Delete("/accounts/:id", auth, accounts.DeleteAccountByID)

	f.Post("/accounts/:id/deposit", auth, moneyThrottle, nethttp.WithBody(new(amountInput), transactions.Deposit))
	f.Post("/accounts/:id/withdraw", auth, moneyThrottle, nethttp.WithBody(new(amountInput), transactions.Withdraw))
	f.Post("/accounts/:id/transfer", auth, moneyThrottle, nethttp.WithBody(new(transferInput), transactions.Transfer))

	f.Get("/accounts/:account_id/transactions", auth, transactions.GetAccountTransactions)
	f.Get("/transactions", auth, transactions.GetAllTransactions)
	f.Get("/transactions/:id", auth, transactions.GetTransactionByID)

	return f
}
