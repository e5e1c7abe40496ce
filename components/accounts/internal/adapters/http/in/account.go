package in

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/vertexpay/core/components/accounts/internal/domain/account"
	"github.com/vertexpay/core/components/accounts/internal/services/accountnumber"
	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/appcontext"
	"github.com/vertexpay/core/pkg/nethttp"
)

// AccountHandler exposes the Account Service's §6.1 account routes.
type AccountHandler struct {
	Accounts  account.Repository
	Generator *accountnumber.Generator
}

type createAccountInput struct {
	AccountType    string `json:"accountType" validate:"required,oneof=checking saving"`
	OrganizationID string `json:"organizationId" validate:"required"`
	UserID         string `json:"userId"`
	AdminUserID    string `json:"adminUserId"`
	UserRole       string `json:"userRole" validate:"omitempty,oneof=customer admin"`
	Currency       string `json:"currency" validate:"required,len=3"`
}

// CreateAccount creates an account, defaulting userRole to customer.
// Customer accounts (§3 Account) require an admin_user_id; admin accounts
// do not.
func (h *AccountHandler) CreateAccount(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()
	logger := appcontext.NewLoggerFromContext(ctx)

	payload := i.(*createAccountInput)

	role := account.Role(payload.UserRole)
	if role == "" {
		role = account.RoleCustomer
	}

	if role == account.RoleCustomer && payload.AdminUserID == "" {
		return nethttp.WithError(c, apperr.ValidateBusinessError(apperr.ErrCustomerRequiresAdmin, "Account"))
	}

	environment := nethttp.Environment(c)

	number, err := h.Generator.Generate(ctx)
	if err != nil {
		return nethttp.WithError(c, err)
	}

	a := &account.Account{
		ID:             uuid.NewString(),
		AccountNumber:  number,
		AccountType:    account.AccountType(payload.AccountType),
		OrganizationID: payload.OrganizationID,
		Environment:    environment,
		UserID:         payload.UserID,
		AdminUserID:    payload.AdminUserID,
		UserRole:       role,
		Currency:       payload.Currency,
		Status:         account.StatusActive,
	}

	created, err := h.Accounts.Create(ctx, a)
	if err != nil {
		return nethttp.WithError(c, apperr.ValidateBusinessError(err, "Account"))
	}

	logger.Infof("created account %s", created.ID)

	return nethttp.Created(c, created)
}

// GetAllAccounts lists accounts filtered by exactly one of user_id,
// organization_id, admin_user_id (§6.1).
func (h *AccountHandler) GetAllAccounts(c *fiber.Ctx) error {
	ctx := c.UserContext()

	f := account.Filter{
		UserID:         c.Query("user_id"),
		OrganizationID: c.Query("organization_id"),
		AdminUserID:    c.Query("admin_user_id"),
		Page:           c.QueryInt("page", 1),
		PerPage:        c.QueryInt("per_page", 20),
	}

	selectors := 0

	for _, s := range []string{f.UserID, f.OrganizationID, f.AdminUserID} {
		if s != "" {
			selectors++
		}
	}

	if selectors != 1 {
		return nethttp.WithError(c, apperr.ValidationError{Code: "INVALID_SELECTOR", Title: "Invalid selector", Message: "exactly one of user_id, organization_id, admin_user_id is required"})
	}

	accounts, err := h.Accounts.List(ctx, f)
	if err != nil {
		return nethttp.WithError(c, apperr.ValidateBusinessError(err, "Account"))
	}

	return nethttp.OK(c, accounts)
}

func (h *AccountHandler) GetAccountByID(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")

	a, err := h.Accounts.Find(ctx, "", id)
	if err != nil {
		return nethttp.WithError(c, apperr.ValidateBusinessError(err, "Account"))
	}

	return nethttp.OK(c, a)
}

type updateAccountInput struct {
	Status string `json:"status" validate:"omitempty,oneof=active suspended closed"`
}

func (h *AccountHandler) UpdateAccount(i any, c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")

	a, err := h.Accounts.Find(ctx, "", id)
	if err != nil {
		return nethttp.WithError(c, apperr.ValidateBusinessError(err, "Account"))
	}

	payload := i.(*updateAccountInput)
	if payload.Status != "" {
		a.Status = account.Status(payload.Status)
	}

	updated, err := h.Accounts.Update(ctx, a)
	if err != nil {
		return nethttp.WithError(c, apperr.ValidateBusinessError(err, "Account"))
	}

	return nethttp.OK(c, updated)
}

// DeleteAccountByID closes an account; closing is terminal (§3 Account).
func (h *AccountHandler) DeleteAccountByID(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id := c.Params("id")

	a, err := h.Accounts.Find(ctx, "", id)
	if err != nil {
		return nethttp.WithError(c, apperr.ValidateBusinessError(err, "Account"))
	}

	if a.IsClosed() {
		return nethttp.WithError(c, apperr.ValidateBusinessError(apperr.ErrAccountAlreadyClosed, "Account"))
	}

	a.Status = account.StatusClosed

	if _, err := h.Accounts.Update(ctx, a); err != nil {
		return nethttp.WithError(c, apperr.ValidateBusinessError(err, "Account"))
	}

	return nethttp.NoContent(c)
}
