package account

import "context"

// Repository is the storage contract for accounts.
type Repository interface {
	Create(ctx context.Context, a *Account) (*Account, error)
	Find(ctx context.Context, organizationID, id string) (*Account, error)
	FindByAccountNumber(ctx context.Context, accountNumber string) (*Account, error)
	FindSystemCashControl(ctx context.Context, organizationID, environment string) (*Account, error)
	List(ctx context.Context, f Filter) ([]*Account, error)
	ListByIDs(ctx context.Context, organizationID string, ids []string) ([]*Account, error)
	Update(ctx context.Context, a *Account) (*Account, error)
	AccountNumberExists(ctx context.Context, accountNumber string) (bool, error)
}
