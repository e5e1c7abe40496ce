// Package passwordreset is the Postgres adapter for the password-reset
// token domain. Claim implements the atomic single-use guarantee (§4.7
// Password reset consume, §8 property 7) with one UPDATE ... RETURNING
// statement, mirroring transaction.Repository.CreateOrGet's race-safety
// idiom.
package passwordreset

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/vertexpay/core/components/identity/internal/domain/passwordreset"
	"github.com/vertexpay/core/pkg/apperr"
)

const tableName = "password_reset_token"

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
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    sql.NullTime
	CreatedAt time.Time
}

func (r row) toEntity() *domain.Token {
	return &domain.Token{
		ID:        r.ID,
		UserID:    r.UserID,
		TokenHash: r.TokenHash,
		ExpiresAt: r.ExpiresAt,
		UsedAt:    r.UsedAt.Time,
		CreatedAt: r.CreatedAt,
	}
}

func (repo *Repository) Create(ctx context.Context, t *domain.Token) (*domain.Token, error) {
	const query = `
		INSERT INTO ` + tableName + ` (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1,$2,$3,$4,$5)`

	_, err := repo.db.ExecContext(ctx, query, t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (repo *Repository) InvalidateUnusedForUser(ctx context.Context, userID string) error {
	const query = `UPDATE ` + tableName + ` SET used_at = $1 WHERE user_id = $2 AND used_at IS NULL`

	_, err := repo.db.ExecContext(ctx, query, time.Now().UTC(), userID)

	return err
}

// Claim consumes the row for tokenHash in one statement: the WHERE clause
// enforces unused-and-unexpired, and RETURNING both confirms the win and
// defeats a race between two concurrent consumers of the same token (§4.7,
// §8 property 7).
func (repo *Repository) Claim(ctx context.Context, tokenHash string) (*domain.Token, error) {
	const query = `
		UPDATE ` + tableName + `
		SET used_at = $1
		WHERE token_hash = $2 AND used_at IS NULL AND expires_at >= $1
		RETURNING id, user_id, token_hash, expires_at, used_at, created_at`

	var m row

	now := time.Now().UTC()

	err := repo.db.QueryRowContext(ctx, query, now, tokenHash).Scan(&m.ID, &m.UserID, &m.TokenHash, &m.ExpiresAt, &m.UsedAt, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrInvalidResetToken
	}

	if err != nil {
		return nil, err
	}

	return m.toEntity(), nil
}
