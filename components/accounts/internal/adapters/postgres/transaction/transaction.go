// Package transaction is the Postgres adapter for the transaction domain,
// implementing the race-safe CreateOrGet idempotency contract (§4.3) on top
// of a unique constraint over (organization_id, environment, idempotency_key).
package transaction

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	domain "github.com/vertexpay/core/components/accounts/internal/domain/transaction"
)

const tableName = "transaction"

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
	OrganizationID  string
	FromAccountID   string
	ToAccountID     string
	Amount          int64
	Currency        string
	Kind            string
	Status          string
	FailureReason   sql.NullString
	IdempotencyKey  string
	Environment     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r row) toEntity() *domain.Transaction {
	return &domain.Transaction{
		ID:              r.ID,
		OrganizationID:  r.OrganizationID,
		FromAccountID:   r.FromAccountID,
		ToAccountID:     r.ToAccountID,
		Amount:          r.Amount,
		Currency:        r.Currency,
		Kind:            domain.Kind(r.Kind),
		Status:          domain.Status(r.Status),
		FailureReason:   r.FailureReason.String,
		IdempotencyKey:  r.IdempotencyKey,
		Environment:     r.Environment,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// CreateOrGet inserts t if no row exists yet for its
// (organization_id, environment, idempotency_key) triple; otherwise the
// pre-existing row wins (§9 Open Question 1: first-write-wins), achieved
// with a single statement so the decision is race-safe under concurrent
// callers racing the same key.
func (repo *Repository) CreateOrGet(ctx context.Context, t *domain.Transaction) (*domain.Transaction, bool, error) {
	const query = `
		INSERT INTO transaction (id, organization_id, from_account_id, to_account_id, amount, currency, kind, status, failure_reason, idempotency_key, environment, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (organization_id, environment, idempotency_key) DO NOTHING
		RETURNING id, organization_id, from_account_id, to_account_id, amount, currency, kind, status, failure_reason, idempotency_key, environment, created_at, updated_at`

	var m row

	err := repo.db.QueryRowContext(ctx, query,
		t.ID, t.OrganizationID, t.FromAccountID, t.ToAccountID, t.Amount, t.Currency,
		string(t.Kind), string(t.Status), sql.NullString{String: t.FailureReason, Valid: t.FailureReason != ""},
		t.IdempotencyKey, t.Environment, t.CreatedAt, t.UpdatedAt,
	).Scan(&m.ID, &m.OrganizationID, &m.FromAccountID, &m.ToAccountID, &m.Amount, &m.Currency,
		&m.Kind, &m.Status, &m.FailureReason, &m.IdempotencyKey, &m.Environment, &m.CreatedAt, &m.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		// The INSERT hit the unique constraint and was suppressed by DO
		// NOTHING: someone else won the race. Fetch their row.
		existing, findErr := repo.findByKey(ctx, t.OrganizationID, t.Environment, t.IdempotencyKey)
		if findErr != nil {
			return nil, false, findErr
		}

		return existing, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return m.toEntity(), true, nil
}

func (repo *Repository) findByKey(ctx context.Context, organizationID, environment, idempotencyKey string) (*domain.Transaction, error) {
	const query = `SELECT id, organization_id, from_account_id, to_account_id, amount, currency, kind, status, failure_reason, idempotency_key, environment, created_at, updated_at
		FROM transaction WHERE organization_id = $1 AND environment = $2 AND idempotency_key = $3`

	var m row

	err := repo.db.QueryRowContext(ctx, query, organizationID, environment, idempotencyKey).Scan(
		&m.ID, &m.OrganizationID, &m.FromAccountID, &m.ToAccountID, &m.Amount, &m.Currency,
		&m.Kind, &m.Status, &m.FailureReason, &m.IdempotencyKey, &m.Environment, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return m.toEntity(), nil
}

func (repo *Repository) Find(ctx context.Context, organizationID, id string) (*domain.Transaction, error) {
	const query = `SELECT id, organization_id, from_account_id, to_account_id, amount, currency, kind, status, failure_reason, idempotency_key, environment, created_at, updated_at
		FROM transaction WHERE id = $1 AND ($2 = '' OR organization_id = $2)`

	var m row

	err := repo.db.QueryRowContext(ctx, query, id, organizationID).Scan(
		&m.ID, &m.OrganizationID, &m.FromAccountID, &m.ToAccountID, &m.Amount, &m.Currency,
		&m.Kind, &m.Status, &m.FailureReason, &m.IdempotencyKey, &m.Environment, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return m.toEntity(), nil
}

func (repo *Repository) List(ctx context.Context, f domain.Filter) ([]*domain.Transaction, error) {
	builder := sq.Select("id", "organization_id", "from_account_id", "to_account_id", "amount", "currency", "kind", "status", "failure_reason", "idempotency_key", "environment", "created_at", "updated_at").
		From(tableName).PlaceholderFormat(sq.Dollar)

	if f.OrganizationID != "" {
		builder = builder.Where(sq.Eq{"organization_id": f.OrganizationID})
	}

	if f.AccountID != "" {
		builder = builder.Where(sq.Or{sq.Eq{"from_account_id": f.AccountID}, sq.Eq{"to_account_id": f.AccountID}})
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

	return scanAll(rows)
}

func (repo *Repository) ListPending(ctx context.Context, f domain.PendingFilter) ([]*domain.Transaction, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 200
	}

	const query = `SELECT id, organization_id, from_account_id, to_account_id, amount, currency, kind, status, failure_reason, idempotency_key, environment, created_at, updated_at
		FROM transaction WHERE status = 'pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2`

	rows, err := repo.db.QueryContext(ctx, query, f.OlderThan, limit)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	return scanAll(rows)
}

func scanAll(rows *sql.Rows) ([]*domain.Transaction, error) {
	var out []*domain.Transaction

	for rows.Next() {
		var m row

		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.FromAccountID, &m.ToAccountID, &m.Amount, &m.Currency,
			&m.Kind, &m.Status, &m.FailureReason, &m.IdempotencyKey, &m.Environment, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}

		out = append(out, m.toEntity())
	}

	return out, rows.Err()
}

// Settle advances an intent to a terminal or still-pending state, but only
// while it is still pending: a concurrent retry-worker sweep or the
// synchronous caller may have already settled it (§4.4 state machine,
// §8 property 4), and the second writer must not clobber the first.
func (repo *Repository) Settle(ctx context.Context, id string, status domain.Status, failureReason string) error {
	const query = `UPDATE transaction SET status = $1, failure_reason = $2, updated_at = $3 WHERE id = $4 AND status = 'pending'`

	_, err := repo.db.ExecContext(ctx, query, string(status), sql.NullString{String: failureReason, Valid: failureReason != ""}, time.Now().UTC(), id)

	return err
}
