// Package account defines the Account entity and its repository contract
// (§3 Account).
package account

import "time"

type AccountType string

const (
	TypeChecking AccountType = "checking"
	TypeSaving   AccountType = "saving"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusClosed    Status = "closed"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// SystemCashControlAccountNumber is the well-known account number of the
// sentinel row FindSystemCashControl looks up per (organization,
// environment), standing in for the abstract external counterpart on
// deposit/withdraw ledger postings (Open Question 3 — sentinel form only,
// no internal self-loop). No code path in this repository creates that
// row; deposit and withdraw return not-found until it exists.
const SystemCashControlAccountNumber = "000000000000"

// Account is a customer or system account within one (organization,
// environment).
type Account struct {
	ID             string
	AccountNumber  string
	AccountType    AccountType
	OrganizationID string
	Environment    string
	UserID         string
	AdminUserID    string
	UserRole       Role
	Currency       string
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (a *Account) IsActive() bool { return a.Status == StatusActive }
func (a *Account) IsClosed() bool { return a.Status == StatusClosed }

// IsSystemCashControl reports whether this row is the abstract external
// counterpart account for deposit/withdraw postings.
func (a *Account) IsSystemCashControl() bool {
	return a.AccountNumber == SystemCashControlAccountNumber
}

// Filter describes the selectors §6.1's GET /accounts supports — exactly
// one of UserID, OrganizationID, AdminUserID is required by the handler.
type Filter struct {
	UserID         string
	OrganizationID string
	AdminUserID    string
	Page           int
	PerPage        int
}
