package environment

import "context"

// Repository is the storage contract for environments.
type Repository interface {
	Create(ctx context.Context, e *Environment) (*Environment, error)
	Find(ctx context.Context, id string) (*Environment, error)
	FindByBusinessAndType(ctx context.Context, businessID string, t Type) (*Environment, error)
	ListByBusiness(ctx context.Context, businessID string) ([]*Environment, error)
}
