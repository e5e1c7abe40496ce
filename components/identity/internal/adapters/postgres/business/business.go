// Package business is the Postgres adapter for the business domain,
// following the teacher codebase's raw-SQL + model mapping idiom
// (components/accounts' account repository).
package business

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/vertexpay/core/components/identity/internal/domain/business"
	"github.com/vertexpay/core/pkg/apperr"
)

// DB is the subset of *sql.DB / *sql.Tx / dbresolver.DB this repository
// needs, satisfied by a pool connection or a transaction alike.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

type row struct {
	ID        string
	Name      string
	Website   sql.NullString
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r row) toEntity() *domain.Business {
	return &domain.Business{
		ID:        r.ID,
		Name:      r.Name,
		Website:   r.Website.String,
		Status:    domain.Status(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo *Repository) Create(ctx context.Context, b *domain.Business) (*domain.Business, error) {
	const query = `
		INSERT INTO business (id, name, website, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)`

	_, err := repo.db.ExecContext(ctx, query, b.ID, b.Name,
		sql.NullString{String: b.Website, Valid: b.Website != ""}, string(b.Status), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return b, nil
}

func (repo *Repository) Find(ctx context.Context, id string) (*domain.Business, error) {
	const query = `SELECT id, name, website, status, created_at, updated_at FROM business WHERE id = $1`

	var m row

	err := repo.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.Name, &m.Website, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrBusinessNotFound
	}

	if err != nil {
		return nil, err
	}

	return m.toEntity(), nil
}
