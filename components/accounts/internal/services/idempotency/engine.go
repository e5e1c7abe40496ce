// Package idempotency implements the create-or-get contract of §4.3: for a
// given (organization, environment, idempotency_key) triple, at most one
// Transaction row is ever materialised, and every concurrent caller
// observes the same row. Race-safety is delegated to the repository's
// single-statement CreateOrGet (§5 suspension point 2); this package adds
// nothing beyond that contract, by design — it exists so moneymovement
// depends on "the idempotency engine" as a named collaborator, matching the
// component boundary in §2 and §4.3.
package idempotency

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vertexpay/core/components/accounts/internal/domain/transaction"
)

// Engine is the idempotency engine (§4.3).
type Engine struct {
	Repo transaction.Repository
}

// CreateOrGet materialises a pending intent for the given key, or returns
// the previously-materialised row unchanged if one already exists.
// Field equality between a cached hit and the incoming arguments is
// deliberately not checked (Open Question 1, resolved: first-write-wins).
func (e *Engine) CreateOrGet(ctx context.Context, organizationID, environment, idempotencyKey string, from, to string, amount int64, currency string, kind transaction.Kind) (*transaction.Transaction, bool, error) {
	now := time.Now().UTC()

	candidate := &transaction.Transaction{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		FromAccountID:  from,
		ToAccountID:    to,
		Amount:         amount,
		Currency:       currency,
		Kind:           kind,
		Status:         transaction.StatusPending,
		IdempotencyKey: idempotencyKey,
		Environment:    environment,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	return e.Repo.CreateOrGet(ctx, candidate)
}
