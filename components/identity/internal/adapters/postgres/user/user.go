// Package user is the Postgres adapter for the user domain. (email, environment_id)
// carries a unique index (constraint name unique_email_per_environment, grounded
// on the original Rust source's registration error check) translated to
// ErrBusinessEmailTaken — the same email may still own one row per environment
// (§3 data model), since login selects a row by environment.
package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	domain "github.com/vertexpay/core/components/identity/internal/domain/user"
	"github.com/vertexpay/core/pkg/apperr"
)

const tableName = "identity_user"

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
	ID                string
	BusinessID        string
	EnvironmentID     string
	FirstName         string
	LastName          string
	Email             string
	PasswordHash      string
	Role              string
	Status            string
	CreatedByUserID   sql.NullString
	CreatedByAPIKeyID sql.NullString
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func fromEntity(u *domain.User) row {
	return row{
		ID:                u.ID,
		BusinessID:        u.BusinessID,
		EnvironmentID:     u.EnvironmentID,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Role:              string(u.Role),
		Status:            string(u.Status),
		CreatedByUserID:   sql.NullString{String: u.CreatedByUserID, Valid: u.CreatedByUserID != ""},
		CreatedByAPIKeyID: sql.NullString{String: u.CreatedByAPIKeyID, Valid: u.CreatedByAPIKeyID != ""},
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (r row) toEntity() *domain.User {
	return &domain.User{
		ID:                r.ID,
		BusinessID:        r.BusinessID,
		EnvironmentID:     r.EnvironmentID,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Email:             r.Email,
		PasswordHash:      r.PasswordHash,
		Role:              domain.Role(r.Role),
		Status:            domain.Status(r.Status),
		CreatedByUserID:   r.CreatedByUserID.String,
		CreatedByAPIKeyID: r.CreatedByAPIKeyID.String,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

const selectCols = `id, business_id, environment_id, first_name, last_name, email, password_hash, role, status, created_by_user_id, created_by_api_key_id, created_at, updated_at`

func scanRow(scanner interface{ Scan(...any) error }) (*domain.User, error) {
	var m row

	err := scanner.Scan(&m.ID, &m.BusinessID, &m.EnvironmentID, &m.FirstName, &m.LastName, &m.Email, &m.PasswordHash,
		&m.Role, &m.Status, &m.CreatedByUserID, &m.CreatedByAPIKeyID, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrUserNotFound
	}

	if err != nil {
		return nil, err
	}

	return m.toEntity(), nil
}

func (repo *Repository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	m := fromEntity(u)

	query := `
		INSERT INTO ` + tableName + ` (id, business_id, environment_id, first_name, last_name, email, password_hash, role, status, created_by_user_id, created_by_api_key_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	_, err := repo.db.ExecContext(ctx, query, m.ID, m.BusinessID, m.EnvironmentID, m.FirstName, m.LastName, m.Email,
		m.PasswordHash, m.Role, m.Status, m.CreatedByUserID, m.CreatedByAPIKeyID, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return nil, translatePgError(err)
	}

	return u, nil
}

func (repo *Repository) Find(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + selectCols + ` FROM ` + tableName + ` WHERE id = $1`
	return scanRow(repo.db.QueryRowContext(ctx, query, id))
}

func (repo *Repository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + selectCols + ` FROM ` + tableName + ` WHERE email = $1`
	return scanRow(repo.db.QueryRowContext(ctx, query, email))
}

func (repo *Repository) FindByEmailAndEnvironment(ctx context.Context, email, environmentID string) (*domain.User, error) {
	query := `SELECT ` + selectCols + ` FROM ` + tableName + ` WHERE email = $1 AND environment_id = $2`
	return scanRow(repo.db.QueryRowContext(ctx, query, email, environmentID))
}

func (repo *Repository) FindByEmailAndBusiness(ctx context.Context, email, businessID string) (*domain.User, error) {
	query := `SELECT ` + selectCols + ` FROM ` + tableName + ` WHERE email = $1 AND business_id = $2`
	return scanRow(repo.db.QueryRowContext(ctx, query, email, businessID))
}

// ListByEmail returns every active row sharing email across environments
// (§3: the same person is one distinct row per environment) so Login can
// verify the password once and then select the row matching the target
// environment, rather than guessing at a single arbitrary row.
func (repo *Repository) ListByEmail(ctx context.Context, email string) ([]*domain.User, error) {
	query := `SELECT ` + selectCols + ` FROM ` + tableName + ` WHERE email = $1 AND status = $2`

	rows, err := repo.db.QueryContext(ctx, query, email, string(domain.StatusActive))
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var out []*domain.User

	for rows.Next() {
		var m row

		if err := rows.Scan(&m.ID, &m.BusinessID, &m.EnvironmentID, &m.FirstName, &m.LastName, &m.Email, &m.PasswordHash,
			&m.Role, &m.Status, &m.CreatedByUserID, &m.CreatedByAPIKeyID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}

		out = append(out, m.toEntity())
	}

	return out, rows.Err()
}

func (repo *Repository) List(ctx context.Context, f domain.Filter) ([]*domain.User, error) {
	builder := sq.Select("id", "business_id", "environment_id", "first_name", "last_name", "email", "password_hash", "role", "status", "created_by_user_id", "created_by_api_key_id", "created_at", "updated_at").
		From(tableName).PlaceholderFormat(sq.Dollar)

	if f.BusinessID != "" {
		builder = builder.Where(sq.Eq{"business_id": f.BusinessID})
	}

	if f.EnvironmentID != "" {
		builder = builder.Where(sq.Eq{"environment_id": f.EnvironmentID})
	}

	perPage := f.PerPage
	if perPage <= 0 {
		perPage = 20
	}

	page := f.Page
	if page <= 0 {
		page = 1
	}

	builder = builder.OrderBy("created_at DESC").Limit(uint64(perPage)).Offset(uint64((page - 1) * perPage))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var out []*domain.User

	for rows.Next() {
		var m row

		if err := rows.Scan(&m.ID, &m.BusinessID, &m.EnvironmentID, &m.FirstName, &m.LastName, &m.Email, &m.PasswordHash,
			&m.Role, &m.Status, &m.CreatedByUserID, &m.CreatedByAPIKeyID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}

		out = append(out, m.toEntity())
	}

	return out, rows.Err()
}

func (repo *Repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE ` + tableName + ` SET password_hash = $1, updated_at = $2 WHERE id = $3`

	_, err := repo.db.ExecContext(ctx, query, passwordHash, time.Now().UTC(), id)

	return err
}

func translatePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.ConstraintName {
		case "unique_email_per_environment":
			return apperr.ErrBusinessEmailTaken
		}
	}

	return err
}
