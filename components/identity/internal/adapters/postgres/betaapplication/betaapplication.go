// Package betaapplication is the Postgres adapter for beta-access
// applications.
package betaapplication

import (
	"context"
	"database/sql"

	domain "github.com/vertexpay/core/components/identity/internal/domain/betaapplication"
)

const tableName = "beta_application"

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

func (repo *Repository) Create(ctx context.Context, a *domain.Application) (*domain.Application, error) {
	const query = `
		INSERT INTO ` + tableName + ` (id, name, email, company, use_case, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`

	_, err := repo.db.ExecContext(ctx, query, a.ID, a.Name, a.Email, a.Company, a.UseCase, a.CreatedAt)
	if err != nil {
		return nil, err
	}

	return a, nil
}
