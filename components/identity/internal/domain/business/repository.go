package business

import "context"

// Repository is the storage contract for businesses.
type Repository interface {
	Create(ctx context.Context, b *Business) (*Business, error)
	Find(ctx context.Context, id string) (*Business, error)
}
