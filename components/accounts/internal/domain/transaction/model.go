// Package transaction defines the Transaction (intent) entity and its
// repository contract (§3 Transaction, §4.3, §4.4).
package transaction

import "time"

type Kind string

const (
	KindDeposit  Kind = "deposit"
	KindWithdraw Kind = "withdraw"
	KindTransfer Kind = "transfer"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPosted  Status = "posted"
	StatusFailed  Status = "failed"
)

// Transaction is a persisted record of a money-movement intent. Once
// Status is posted or failed it is a terminal sink — no field on the row
// changes again (§3 invariant 4 under Transaction, §8 property 4).
type Transaction struct {
	ID             string
	OrganizationID string
	FromAccountID  string
	ToAccountID    string
	Amount         int64
	Currency       string
	Kind           Kind
	Status         Status
	FailureReason  string
	IdempotencyKey string
	Environment    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (t *Transaction) IsTerminal() bool {
	return t.Status == StatusPosted || t.Status == StatusFailed
}

// Filter describes the selectors §6.1's GET /transactions and
// GET /accounts/:id/transactions support.
type Filter struct {
	OrganizationID string
	AccountID      string
	Page           int
	PerPage        int
	Limit          int
}

// PendingFilter describes the retry worker's sweep selector (§4.5).
type PendingFilter struct {
	OlderThan time.Time
	Limit     int
}
