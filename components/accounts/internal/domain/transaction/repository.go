package transaction

import "context"

// Repository is the storage contract for transaction intents.
type Repository interface {
	// CreateOrGet is the idempotency engine's single-statement contract
	// (§4.3): if a row with (organization_id, COALESCE(environment,''),
	// idempotency_key) exists it is returned unchanged; otherwise a new
	// pending row is inserted and returned. Must be race-safe under
	// concurrent callers with an identical key.
	CreateOrGet(ctx context.Context, t *Transaction) (tx *Transaction, created bool, err error)

	Find(ctx context.Context, organizationID, id string) (*Transaction, error)
	List(ctx context.Context, f Filter) ([]*Transaction, error)
	ListPending(ctx context.Context, f PendingFilter) ([]*Transaction, error)

	// Settle advances a pending intent to posted or failed, or updates the
	// failure_reason while remaining pending (§4.4 state machine). It must
	// no-op (not error) if the row is already terminal, since the
	// synchronous path and the retry worker race to settle the same row.
	Settle(ctx context.Context, id string, status Status, failureReason string) error
}
