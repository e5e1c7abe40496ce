package betaapplication

import "context"

// Repository is the storage contract for beta applications.
type Repository interface {
	Create(ctx context.Context, a *Application) (*Application, error)
}
