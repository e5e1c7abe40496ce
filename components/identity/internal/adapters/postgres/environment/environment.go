// Package environment is the Postgres adapter for the environment domain.
package environment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/vertexpay/core/components/identity/internal/domain/environment"
	"github.com/vertexpay/core/pkg/apperr"
)

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

type row struct {
	ID         string
	BusinessID string
	Type       string
	Status     string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r row) toEntity() *domain.Environment {
	return &domain.Environment{
		ID:         r.ID,
		BusinessID: r.BusinessID,
		Type:       domain.Type(r.Type),
		Status:     domain.Status(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

const selectCols = `id, business_id, type, status, created_at, updated_at`

func (repo *Repository) Create(ctx context.Context, e *domain.Environment) (*domain.Environment, error) {
	const query = `INSERT INTO environment (id, business_id, type, status, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)`

	_, err := repo.db.ExecContext(ctx, query, e.ID, e.BusinessID, string(e.Type), string(e.Status), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return e, nil
}

func (repo *Repository) Find(ctx context.Context, id string) (*domain.Environment, error) {
	query := `SELECT ` + selectCols + ` FROM environment WHERE id = $1`

	var m row

	err := repo.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.BusinessID, &m.Type, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrEnvironmentNotFound
	}

	if err != nil {
		return nil, err
	}

	return m.toEntity(), nil
}

func (repo *Repository) FindByBusinessAndType(ctx context.Context, businessID string, t domain.Type) (*domain.Environment, error) {
	query := `SELECT ` + selectCols + ` FROM environment WHERE business_id = $1 AND type = $2`

	var m row

	err := repo.db.QueryRowContext(ctx, query, businessID, string(t)).Scan(&m.ID, &m.BusinessID, &m.Type, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrEnvironmentNotFound
	}

	if err != nil {
		return nil, err
	}

	return m.toEntity(), nil
}

func (repo *Repository) ListByBusiness(ctx context.Context, businessID string) ([]*domain.Environment, error) {
	query := `SELECT ` + selectCols + ` FROM environment WHERE business_id = $1 AND status = 'active' ORDER BY type`

	rows, err := repo.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var out []*domain.Environment

	for rows.Next() {
		var m row

		if err := rows.Scan(&m.ID, &m.BusinessID, &m.Type, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}

		out = append(out, m.toEntity())
	}

	return out, rows.Err()
}
