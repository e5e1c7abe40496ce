// Package account is the Postgres adapter for the account domain,
// following the teacher codebase's raw-SQL + model mapping + pgconn
// constraint translation idiom (components/ledger's account repository).
package account

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	domain "github.com/vertexpay/core/components/accounts/internal/domain/account"
	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/appcontext"
)

const tableName = "account"

// DB is the subset of *sql.DB / dbresolver.DB this repository needs.
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
	ID             string
	AccountNumber  string
	AccountType    string
	OrganizationID string
	Environment    string
	UserID         sql.NullString
	AdminUserID    sql.NullString
	UserRole       sql.NullString
	Currency       string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func fromEntity(a *domain.Account) row {
	return row{
		ID:             a.ID,
		AccountNumber:  a.AccountNumber,
		AccountType:    string(a.AccountType),
		OrganizationID: a.OrganizationID,
		Environment:    a.Environment,
		UserID:         sql.NullString{String: a.UserID, Valid: a.UserID != ""},
		AdminUserID:    sql.NullString{String: a.AdminUserID, Valid: a.AdminUserID != ""},
		UserRole:       sql.NullString{String: string(a.UserRole), Valid: a.UserRole != ""},
		Currency:       a.Currency,
		Status:         string(a.Status),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (r row) toEntity() *domain.Account {
	return &domain.Account{
		ID:             r.ID,
		AccountNumber:  r.AccountNumber,
		AccountType:    domain.AccountType(r.AccountType),
		OrganizationID: r.OrganizationID,
		Environment:    r.Environment,
		UserID:         r.UserID.String,
		AdminUserID:    r.AdminUserID.String,
		UserRole:       domain.Role(r.UserRole.String),
		Currency:       r.Currency,
		Status:         domain.Status(r.Status),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (repo *Repository) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	_, span := appcontext.NewTracerFromContext(ctx).Start(ctx, "postgres.account.create")
	defer span.End()

	m := fromEntity(a)

	const query = `
		INSERT INTO account (id, account_number, account_type, organization_id, environment, user_id, admin_user_id, user_role, currency, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	_, err := repo.db.ExecContext(ctx, query,
		m.ID, m.AccountNumber, m.AccountType, m.OrganizationID, m.Environment,
		m.UserID, m.AdminUserID, m.UserRole, m.Currency, m.Status, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return nil, translatePgError(err, "Account")
	}

	return a, nil
}

func (repo *Repository) Find(ctx context.Context, organizationID, id string) (*domain.Account, error) {
	const query = `SELECT id, account_number, account_type, organization_id, environment, user_id, admin_user_id, user_role, currency, status, created_at, updated_at
		FROM account WHERE id = $1 AND ($2 = '' OR organization_id = $2)`

	var m row

	err := repo.db.QueryRowContext(ctx, query, id, organizationID).Scan(
		&m.ID, &m.AccountNumber, &m.AccountType, &m.OrganizationID, &m.Environment,
		&m.UserID, &m.AdminUserID, &m.UserRole, &m.Currency, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrAccountNotFound
	}

	if err != nil {
		return nil, translatePgError(err, "Account")
	}

	return m.toEntity(), nil
}

func (repo *Repository) FindByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	const query = `SELECT id, account_number, account_type, organization_id, environment, user_id, admin_user_id, user_role, currency, status, created_at, updated_at
		FROM account WHERE account_number = $1`

	var m row

	err := repo.db.QueryRowContext(ctx, query, accountNumber).Scan(
		&m.ID, &m.AccountNumber, &m.AccountType, &m.OrganizationID, &m.Environment,
		&m.UserID, &m.AdminUserID, &m.UserRole, &m.Currency, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrAccountNotFound
	}

	if err != nil {
		return nil, translatePgError(err, "Account")
	}

	return m.toEntity(), nil
}

func (repo *Repository) FindSystemCashControl(ctx context.Context, organizationID, environment string) (*domain.Account, error) {
	const query = `SELECT id, account_number, account_type, organization_id, environment, user_id, admin_user_id, user_role, currency, status, created_at, updated_at
		FROM account WHERE organization_id = $1 AND environment = $2 AND account_number = $3`

	var m row

	err := repo.db.QueryRowContext(ctx, query, organizationID, environment, domain.SystemCashControlAccountNumber).Scan(
		&m.ID, &m.AccountNumber, &m.AccountType, &m.OrganizationID, &m.Environment,
		&m.UserID, &m.AdminUserID, &m.UserRole, &m.Currency, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrAccountNotFound
	}

	if err != nil {
		return nil, translatePgError(err, "Account")
	}

	return m.toEntity(), nil
}

func (repo *Repository) List(ctx context.Context, f domain.Filter) ([]*domain.Account, error) {
	builder := sq.Select("id", "account_number", "account_type", "organization_id", "environment", "user_id", "admin_user_id", "user_role", "currency", "status", "created_at", "updated_at").
		From(tableName).PlaceholderFormat(sq.Dollar)

	if f.UserID != "" {
		builder = builder.Where(sq.Eq{"user_id": f.UserID})
	}

	if f.OrganizationID != "" {
		builder = builder.Where(sq.Eq{"organization_id": f.OrganizationID})
	}

	if f.AdminUserID != "" {
		builder = builder.Where(sq.Eq{"admin_user_id": f.AdminUserID})
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
		return nil, translatePgError(err, "Account")
	}

	defer rows.Close()

	var out []*domain.Account

	for rows.Next() {
		var m row

		if err := rows.Scan(&m.ID, &m.AccountNumber, &m.AccountType, &m.OrganizationID, &m.Environment,
			&m.UserID, &m.AdminUserID, &m.UserRole, &m.Currency, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}

		out = append(out, m.toEntity())
	}

	return out, rows.Err()
}

func (repo *Repository) ListByIDs(ctx context.Context, organizationID string, ids []string) ([]*domain.Account, error) {
	builder := sq.Select("id", "account_number", "account_type", "organization_id", "environment", "user_id", "admin_user_id", "user_role", "currency", "status", "created_at", "updated_at").
		From(tableName).Where(sq.Eq{"organization_id": organizationID, "id": ids}).PlaceholderFormat(sq.Dollar)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(err, "Account")
	}

	defer rows.Close()

	var out []*domain.Account

	for rows.Next() {
		var m row

		if err := rows.Scan(&m.ID, &m.AccountNumber, &m.AccountType, &m.OrganizationID, &m.Environment,
			&m.UserID, &m.AdminUserID, &m.UserRole, &m.Currency, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}

		out = append(out, m.toEntity())
	}

	return out, rows.Err()
}

func (repo *Repository) Update(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	const query = `UPDATE account SET status = $1, admin_user_id = $2, user_role = $3, updated_at = $4 WHERE id = $5`

	_, err := repo.db.ExecContext(ctx, query, string(a.Status), sql.NullString{String: a.AdminUserID, Valid: a.AdminUserID != ""}, sql.NullString{String: string(a.UserRole), Valid: a.UserRole != ""}, time.Now().UTC(), a.ID)
	if err != nil {
		return nil, translatePgError(err, "Account")
	}

	return a, nil
}

func (repo *Repository) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM account WHERE account_number = $1)`

	var exists bool

	if err := repo.db.QueryRowContext(ctx, query, accountNumber).Scan(&exists); err != nil {
		return false, translatePgError(err, "Account")
	}

	return exists, nil
}

// translatePgError mirrors the teacher's ValidatePGError: map known
// constraint violations to business sentinels, fall back to the raw error
// for anything else so it reaches the response boundary as Internal.
func translatePgError(err error, entityType string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.ConstraintName {
		case "account_account_number_key":
			return apperr.ErrAccountNumberExhausted
		}
	}

	return err
}
