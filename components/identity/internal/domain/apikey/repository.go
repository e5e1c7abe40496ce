package apikey

import "context"

// Repository is the storage contract for API keys.
type Repository interface {
	Create(ctx context.Context, k *ApiKey) (*ApiKey, error)
	Find(ctx context.Context, id string) (*ApiKey, error)
	FindByKeyHash(ctx context.Context, keyHash string) (*ApiKey, error)
	ListByBusiness(ctx context.Context, businessID string) ([]*ApiKey, error)
	Revoke(ctx context.Context, id string) error
	TouchLastUsed(ctx context.Context, id string) error
}
