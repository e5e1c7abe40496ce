// Package moneymovement implements the deposit/withdraw/transfer
// orchestration (§4.4): validate, create a durable intent, post
// synchronously to the Ledger, settle.
package moneymovement

import (
	"context"
	"fmt"

	"github.com/vertexpay/core/components/accounts/internal/domain/account"
	"github.com/vertexpay/core/components/accounts/internal/domain/transaction"
	"github.com/vertexpay/core/components/accounts/internal/ledgerclient"
	"github.com/vertexpay/core/components/accounts/internal/services/idempotency"
	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/appcontext"
)

// LedgerClient is the subset of ledgerclient.Client this service needs,
// narrowed for testability.
type LedgerClient interface {
	PostTransaction(ctx context.Context, req ledgerclient.Request) ledgerclient.Result
}

// Service is the money-movement service (§4.4).
type Service struct {
	Accounts    account.Repository
	Idempotency *idempotency.Engine
	Ledger      LedgerClient
}

// Result is the settled outcome of a money-movement call: the intent row
// and the post-settlement view of the account(s) involved.
type Result struct {
	Transaction *transaction.Transaction
	From        *account.Account
	To          *account.Account
}

// Deposit moves amount from the organization's SYSTEM_CASH_CONTROL sentinel
// into acct (§4.4).
func (s *Service) Deposit(ctx context.Context, acctID string, amount int64, idemKey, correlationID string) (*Result, error) {
	acct, err := s.loadActive(ctx, acctID)
	if err != nil {
		return nil, err
	}

	sentinel, err := s.Accounts.FindSystemCashControl(ctx, acct.OrganizationID, acct.Environment)
	if err != nil {
		return nil, apperr.ValidateBusinessError(apperr.ErrAccountNotFound, "SystemCashControlAccount")
	}

	return s.execute(ctx, sentinel, acct, amount, idemKey, correlationID, transaction.KindDeposit)
}

// Withdraw moves amount from acct into the organization's
// SYSTEM_CASH_CONTROL sentinel (§4.4).
func (s *Service) Withdraw(ctx context.Context, acctID string, amount int64, idemKey, correlationID string) (*Result, error) {
	acct, err := s.loadActive(ctx, acctID)
	if err != nil {
		return nil, err
	}

	sentinel, err := s.Accounts.FindSystemCashControl(ctx, acct.OrganizationID, acct.Environment)
	if err != nil {
		return nil, apperr.ValidateBusinessError(apperr.ErrAccountNotFound, "SystemCashControlAccount")
	}

	return s.execute(ctx, acct, sentinel, amount, idemKey, correlationID, transaction.KindWithdraw)
}

// Transfer moves amount from fromID to toID, both within the same
// organization and currency (§4.4).
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount int64, idemKey, correlationID string) (*Result, error) {
	from, err := s.loadActive(ctx, fromID)
	if err != nil {
		return nil, err
	}

	to, err := s.loadActive(ctx, toID)
	if err != nil {
		return nil, err
	}

	if from.OrganizationID != to.OrganizationID {
		return nil, apperr.ValidateBusinessError(apperr.ErrCrossOrganization, "Transaction")
	}

	if from.Currency != to.Currency {
		return nil, apperr.ValidateBusinessError(apperr.ErrCurrencyMismatch, "Transaction")
	}

	return s.execute(ctx, from, to, amount, idemKey, correlationID, transaction.KindTransfer)
}

func (s *Service) loadActive(ctx context.Context, id string) (*account.Account, error) {
	// organizationID is unknown at this point in the call chain for a bare
	// account id lookup keyed only by id; passing "" makes Find skip the
	// organisation filter, so the lookup relies on global id uniqueness
	// (ids are 128-bit opaque identifiers, §3).
	acct, err := s.Accounts.Find(ctx, "", id)
	if err != nil {
		return nil, apperr.ValidateBusinessError(apperr.ErrAccountNotFound, "Account")
	}

	if !acct.IsActive() {
		return nil, apperr.ValidateBusinessError(apperr.ErrAccountNotActive, "Account")
	}

	return acct, nil
}

func (s *Service) execute(ctx context.Context, from, to *account.Account, amount int64, idemKey, correlationID string, kind transaction.Kind) (*Result, error) {
	logger := appcontext.NewLoggerFromContext(ctx)

	if amount <= 0 {
		return nil, apperr.ValidateBusinessError(apperr.ErrInvalidAmount, "Transaction")
	}

	if idemKey == "" {
		return nil, apperr.ValidateBusinessError(apperr.ErrEmptyIdempotencyKey, "Transaction")
	}

	intent, created, err := s.Idempotency.CreateOrGet(ctx, from.OrganizationID, from.Environment, idemKey, from.ID, to.ID, amount, from.Currency, kind)
	if err != nil {
		return nil, apperr.NewInternalError(err)
	}

	if !created {
		logger.Infof("idempotency replay for key %s, returning existing intent %s", idemKey, intent.ID)
		return &Result{Transaction: intent, From: from, To: to}, nil
	}

	result := s.Ledger.PostTransaction(ctx, ledgerclient.Request{
		OrganizationID:        from.OrganizationID,
		Environment:           from.Environment,
		SourceExternalID:      from.AccountNumber,
		DestinationExternalID: to.AccountNumber,
		Amount:                amount,
		Currency:              from.Currency,
		ExternalTransactionID: intent.ID,
		IdempotencyKey:        idemKey,
		CorrelationID:         correlationID,
	})

	switch result.Outcome {
	case ledgerclient.Ok:
		intent.Status = transaction.StatusPosted
	case ledgerclient.Failed:
		intent.Status = transaction.StatusFailed
		intent.FailureReason = result.FailureReason
	case ledgerclient.Unreachable:
		intent.FailureReason = result.FailureReason
		logger.Warnf("ledger unreachable for intent %s, leaving pending: %s", intent.ID, result.FailureReason)
	}

	// Settle is a no-op if the row already reached a terminal state via a
	// concurrent retry-worker sweep (§4.4 state machine, §8 property 4).
	if err := s.Idempotency.Repo.Settle(ctx, intent.ID, intent.Status, intent.FailureReason); err != nil {
		return nil, apperr.NewInternalError(fmt.Errorf("settle intent %s: %w", intent.ID, err))
	}

	return &Result{Transaction: intent, From: from, To: to}, nil
}
