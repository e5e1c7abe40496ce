package in

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vertexpay/core/components/accounts/internal/domain/transaction"
	"github.com/vertexpay/core/components/accounts/internal/services/moneymovement"
	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/nethttp"
)

// TransactionHandler exposes deposit, withdraw, transfer and transaction
// lookup (§6.1).
type TransactionHandler struct {
	MoneyMovement *moneymovement.Service
	Transactions  transaction.Repository
}

type amountInput struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

func idempotencyKey(c *fiber.Ctx) string {
	return c.Get(nethttp.HeaderIdempotencyKey)
}

func (h *TransactionHandler) Deposit(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	key := idempotencyKey(c)
	if key == "" {
		return nethttp.WithError(c, apperr.ValidateBusinessError(apperr.ErrEmptyIdempotencyKey, "Transaction"))
	}

	payload := i.(*amountInput)

	result, err := h.MoneyMovement.Deposit(ctx, c.Params("id"), payload.Amount, key, nethttp.CorrelationID(c))
	if err != nil {
		return nethttp.WithError(c, err)
	}

	return nethttp.Created(c, result.Transaction)
}

func (h *TransactionHandler) Withdraw(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	key := idempotencyKey(c)
	if key == "" {
		return nethttp.WithError(c, apperr.ValidateBusinessError(apperr.ErrEmptyIdempotencyKey, "Transaction"))
	}

	payload := i.(*amountInput)

	result, err := h.MoneyMovement.Withdraw(ctx, c.Params("id"), payload.Amount, key, nethttp.CorrelationID(c))
	if err != nil {
		return nethttp.WithError(c, err)
	}

	return nethttp.Created(c, result.Transaction)
}

type transferInput struct {
	ToAccountID string `json:"toAccountId" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
}

func (h *TransactionHandler) Transfer(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	key := idempotencyKey(c)
	if key == "" {
		return nethttp.WithError(c, apperr.ValidateBusinessError(apperr.ErrEmptyIdempotencyKey, "Transaction"))
	}

	payload := i.(*transferInput)

	result, err := h.MoneyMovement.Transfer(ctx, c.Params("id"), payload.ToAccountID, payload.Amount, key, nethttp.CorrelationID(c))
	if err != nil {
		return nethttp.WithError(c, err)
	}

	return nethttp.Created(c, result.Transaction)
}

func (h *TransactionHandler) GetTransactionByID(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tx, err := h.Transactions.Find(ctx, "", c.Params("id"))
	if err != nil {
		return nethttp.WithError(c, apperr.ValidateBusinessError(apperr.ErrTransactionNotFound, "Transaction"))
	}

	return nethttp.OK(c, tx)
}

func (h *TransactionHandler) GetAllTransactions(c *fiber.Ctx) error {
	ctx := c.UserContext()

	f := transaction.Filter{
		OrganizationID: c.Query("organization_id"),
		AccountID:      c.Query("account_id"),
		Page:           c.QueryInt("page", 1),
		PerPage:        c.QueryInt("per_page", 20),
	}

	txs, err := h.Transactions.List(ctx, f)
	if err != nil {
		return nethttp.WithError(c, apperr.NewInternalError(err))
	}

	return nethttp.OK(c, txs)
}

// GetAccountTransactions lists transactions for one account (§6.1
// GET /accounts/:account_id/transactions).
func (h *TransactionHandler) GetAccountTransactions(c *fiber.Ctx) error {
	ctx := c.UserContext()

	f := transaction.Filter{
		AccountID: c.Params("account_id"),
		Page:      c.QueryInt("page", 1),
		PerPage:   c.QueryInt("per_page", 20),
	}

	txs, err := h.Transactions.List(ctx, f)
	if err != nil {
		return nethttp.WithError(c, apperr.NewInternalError(err))
	}

	return nethttp.OK(c, txs)
}
