// Package session is the Postgres adapter for the session domain.
package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/vertexpay/core/components/identity/internal/domain/session"
	"github.com/vertexpay/core/pkg/apperr"
)

const tableName = "user_session"

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
	ID               string
	UserID           string
	EnvironmentID    string
	RefreshTokenHash string
	JWTID            string
	Status           string
	ExpiresAt        time.Time
	RevokedAt        sql.NullTime
	CreatedAt        time.Time
}

func (r row) toEntity() *domain.Session {
	return &domain.Session{
		ID:               r.ID,
		UserID:           r.UserID,
		EnvironmentID:    r.EnvironmentID,
		RefreshTokenHash: r.RefreshTokenHash,
		JWTID:            r.JWTID,
		Status:           domain.Status(r.Status),
		ExpiresAt:        r.ExpiresAt,
		RevokedAt:        r.RevokedAt.Time,
		CreatedAt:        r.CreatedAt,
	}
}

const selectCols = `id, user_id, environment_id, refresh_token_hash, jwt_id, status, expires_at, revoked_at, created_at`

func (repo *Repository) Create(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	const query = `
		INSERT INTO ` + tableName + ` (id, user_id, environment_id, refresh_token_hash, jwt_id, status, expires_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := repo.db.ExecContext(ctx, query, s.ID, s.UserID, s.EnvironmentID, s.RefreshTokenHash, s.JWTID, string(s.Status), s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (repo *Repository) FindByRefreshTokenHash(ctx context.Context, refreshTokenHash string) (*domain.Session, error) {
	query := `SELECT ` + selectCols + ` FROM ` + tableName + ` WHERE refresh_token_hash = $1`

	var m row

	err := repo.db.QueryRowContext(ctx, query, refreshTokenHash).Scan(
		&m.ID, &m.UserID, &m.EnvironmentID, &m.RefreshTokenHash, &m.JWTID, &m.Status, &m.ExpiresAt, &m.RevokedAt, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrSessionNotFound
	}

	if err != nil {
		return nil, err
	}

	return m.toEntity(), nil
}

func (repo *Repository) Revoke(ctx context.Context, id string) error {
	const query = `UPDATE ` + tableName + ` SET status = 'revoked', revoked_at = $1 WHERE id = $2 AND status = 'active'`

	res, err := repo.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return apperr.ErrSessionNotFound
	}

	return nil
}
