// Package retryworker implements the periodic sweep of pending intents
// described in §4.5: every poll interval, fetch pending intents older than
// a grace period, re-post to the Ledger, and advance the state machine.
package retryworker

import (
	"context"
	"time"

	"github.com/vertexpay/core/components/accounts/internal/domain/account"
	"github.com/vertexpay/core/components/accounts/internal/domain/transaction"
	"github.com/vertexpay/core/components/accounts/internal/ledgerclient"
	"github.com/vertexpay/core/pkg/appcontext"
)

const (
	defaultPollInterval = 3 * time.Second
	defaultGracePeriod  = 2 * time.Second
	defaultBatchSize    = 200
)

// LedgerClient is the subset of ledgerclient.Client this worker needs.
type LedgerClient interface {
	PostTransaction(ctx context.Context, req ledgerclient.Request) ledgerclient.Result
}

// Worker is the retry worker (§4.5). It holds no locks between iterations
// and is safe to run as a single instance per service.
type Worker struct {
	Transactions transaction.Repository
	Accounts     account.Repository
	Ledger       LedgerClient

	PollInterval time.Duration
	GracePeriod  time.Duration
	BatchSize    int
}

func New(txns transaction.Repository, accounts account.Repository, ledger LedgerClient) *Worker {
	return &Worker{
		Transactions: txns,
		Accounts:     accounts,
		Ledger:       ledger,
		PollInterval: defaultPollInterval,
		GracePeriod:  defaultGracePeriod,
		BatchSize:    defaultBatchSize,
	}
}

// Run blocks, sweeping on every PollInterval, until ctx is cancelled — the
// worker stops only on process shutdown (§4.5), satisfying the Launcher's
// Runnable contract.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	logger := appcontext.NewLoggerFromContext(ctx).WithFields("worker", "retry")

	pending, err := w.Transactions.ListPending(ctx, transaction.PendingFilter{
		OlderThan: time.Now().UTC().Add(-w.GracePeriod),
		Limit:     w.BatchSize,
	})
	if err != nil {
		logger.Errorf("list pending intents: %v", err)
		return
	}

	for _, intent := range pending {
		// A failure on one intent is logged and the sweep continues (§4.5).
		if err := w.settleOne(ctx, intent); err != nil {
			logger.Errorf("settle intent %s: %v", intent.ID, err)
		}
	}
}

func (w *Worker) settleOne(ctx context.Context, intent *transaction.Transaction) error {
	from, err := w.Accounts.Find(ctx, intent.OrganizationID, intent.FromAccountID)
	if err != nil {
		return err
	}

	to, err := w.Accounts.Find(ctx, intent.OrganizationID, intent.ToAccountID)
	if err != nil {
		return err
	}

	result := w.Ledger.PostTransaction(ctx, ledgerclient.Request{
		OrganizationID:        intent.OrganizationID,
		Environment:           from.Environment,
		SourceExternalID:      from.AccountNumber,
		DestinationExternalID: to.AccountNumber,
		Amount:                intent.Amount,
		Currency:              intent.Currency,
		ExternalTransactionID: intent.ID,
		IdempotencyKey:        intent.IdempotencyKey,
	})

	switch result.Outcome {
	case ledgerclient.Ok:
		return w.Transactions.Settle(ctx, intent.ID, transaction.StatusPosted, "")
	case ledgerclient.Failed:
		return w.Transactions.Settle(ctx, intent.ID, transaction.StatusFailed, result.FailureReason)
	default: // Unreachable: remains pending, retried on the next sweep.
		return w.Transactions.Settle(ctx, intent.ID, transaction.StatusPending, result.FailureReason)
	}
}
