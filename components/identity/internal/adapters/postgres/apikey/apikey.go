// Package apikey is the Postgres adapter for the api key domain.
package apikey

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/vertexpay/core/components/identity/internal/domain/apikey"
	"github.com/vertexpay/core/pkg/apperr"
)

const tableName = "api_key"

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
	ID              string
	BusinessID      string
	EnvironmentID   sql.NullString
	KeyHash         string
	Status          string
	LastUsedAt      sql.NullTime
	CreatedByUserID string
	RevokedAt       sql.NullTime
	CreatedAt       time.Time
}

func (r row) toEntity() *domain.ApiKey {
	return &domain.ApiKey{
		ID:              r.ID,
		BusinessID:      r.BusinessID,
		EnvironmentID:   r.EnvironmentID.String,
		KeyHash:         r.KeyHash,
		Status:          domain.Status(r.Status),
		LastUsedAt:      r.LastUsedAt.Time,
		CreatedByUserID: r.CreatedByUserID,
		RevokedAt:       r.RevokedAt.Time,
		CreatedAt:       r.CreatedAt,
	}
}

const selectCols = `id, business_id, environment_id, key_hash, status, last_used_at, created_by_user_id, revoked_at, created_at`

func scanRow(scanner interface{ Scan(...any) error }) (*domain.ApiKey, error) {
	var m row

	err := scanner.Scan(&m.ID, &m.BusinessID, &m.EnvironmentID, &m.KeyHash, &m.Status, &m.LastUsedAt, &m.CreatedByUserID, &m.RevokedAt, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrApiKeyNotFound
	}

	if err != nil {
		return nil, err
	}

	return m.toEntity(), nil
}

func (repo *Repository) Create(ctx context.Context, k *domain.ApiKey) (*domain.ApiKey, error) {
	const query = `
		INSERT INTO ` + tableName + ` (id, business_id, environment_id, key_hash, status, created_by_user_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := repo.db.ExecContext(ctx, query, k.ID, k.BusinessID,
		sql.NullString{String: k.EnvironmentID, Valid: k.EnvironmentID != ""}, k.KeyHash, string(k.Status), k.CreatedByUserID, k.CreatedAt)
	if err != nil {
		return nil, err
	}

	return k, nil
}

func (repo *Repository) Find(ctx context.Context, id string) (*domain.ApiKey, error) {
	query := `SELECT ` + selectCols + ` FROM ` + tableName + ` WHERE id = $1`
	return scanRow(repo.db.QueryRowContext(ctx, query, id))
}

func (repo *Repository) FindByKeyHash(ctx context.Context, keyHash string) (*domain.ApiKey, error) {
	query := `SELECT ` + selectCols + ` FROM ` + tableName + ` WHERE key_hash = $1`
	return scanRow(repo.db.QueryRowContext(ctx, query, keyHash))
}

func (repo *Repository) ListByBusiness(ctx context.Context, businessID string) ([]*domain.ApiKey, error) {
	query := `SELECT ` + selectCols + ` FROM ` + tableName + ` WHERE business_id = $1 ORDER BY created_at DESC`

	rows, err := repo.db.QueryContext(ctx, query, businessID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var out []*domain.ApiKey

	for rows.Next() {
		var m row

		if err := rows.Scan(&m.ID, &m.BusinessID, &m.EnvironmentID, &m.KeyHash, &m.Status, &m.LastUsedAt, &m.CreatedByUserID, &m.RevokedAt, &m.CreatedAt); err != nil {
			return nil, err
		}

		out = append(out, m.toEntity())
	}

	return out, rows.Err()
}

func (repo *Repository) Revoke(ctx context.Context, id string) error {
	const query = `UPDATE ` + tableName + ` SET status = 'revoked', revoked_at = $1 WHERE id = $2 AND status = 'active'`

	_, err := repo.db.ExecContext(ctx, query, time.Now().UTC(), id)

	return err
}

func (repo *Repository) TouchLastUsed(ctx context.Context, id string) error {
	const query = `UPDATE ` + tableName + ` SET last_used_at = $1 WHERE id = $2`

	_, err := repo.db.ExecContext(ctx, query, time.Now().UTC(), id)

	return err
}
