package moneymovement

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/vertexpay/core/components/accounts/internal/domain/account"
	"github.com/vertexpay/core/components/accounts/internal/domain/transaction"
	"github.com/vertexpay/core/components/accounts/internal/ledgerclient"
	"github.com/vertexpay/core/components/accounts/internal/services/idempotency"
)

type fakeAccountRepo struct {
	mu       sync.Mutex
	byID     map[string]*account.Account
	sentinel map[string]*account.Account // key: org|env
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byID: map[string]*account.Account{}, sentinel: map[string]*account.Account{}}
}

func (r *fakeAccountRepo) put(a *account.Account) { r.byID[a.ID] = a }

func (r *fakeAccountRepo) putSentinel(org, env string, a *account.Account) {
	r.sentinel[org+"|"+env] = a
	r.byID[a.ID] = a
}

func (r *fakeAccountRepo) Create(_ context.Context, a *account.Account) (*account.Account, error) {
	r.put(a)
	return a, nil
}

func (r *fakeAccountRepo) Find(_ context.Context, _ string, id string) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, errNotFound
	}

	cp := *a

	return &cp, nil
}

func (r *fakeAccountRepo) FindByAccountNumber(_ context.Context, _ string) (*account.Account, error) {
	return nil, errNotFound
}

func (r *fakeAccountRepo) FindSystemCashControl(_ context.Context, org, env string) (*account.Account, error) {
	a, ok := r.sentinel[org+"|"+env]
	if !ok {
		return nil, errNotFound
	}

	return a, nil
}

func (r *fakeAccountRepo) List(context.Context, account.Filter) ([]*account.Account, error) {
	return nil, nil
}

func (r *fakeAccountRepo) ListByIDs(context.Context, string, []string) ([]*account.Account, error) {
	return nil, nil
}

func (r *fakeAccountRepo) Update(_ context.Context, a *account.Account) (*account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[a.ID] = a

	return a, nil
}

func (r *fakeAccountRepo) AccountNumberExists(context.Context, string) (bool, error) {
	return false, nil
}

var errNotFound = &notFoundErr{}

type notFoundErr struct{}

func (*notFoundErr) Error() string { return "not found" }

type fakeTxnRepo struct {
	mu   sync.Mutex
	byID map[string]*transaction.Transaction
	byKey map[string]*transaction.Transaction
}

func newFakeTxnRepo() *fakeTxnRepo {
	return &fakeTxnRepo{byID: map[string]*transaction.Transaction{}, byKey: map[string]*transaction.Transaction{}}
}

func (r *fakeTxnRepo) CreateOrGet(_ context.Context, t *transaction.Transaction) (*transaction.Transaction, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := t.OrganizationID + "|" + t.Environment + "|" + t.IdempotencyKey
	if existing, ok := r.byKey[key]; ok {
		return existing, false, nil
	}

	r.byKey[key] = t
	r.byID[t.ID] = t

	return t, true, nil
}

func (r *fakeTxnRepo) Find(_ context.Context, _ string, id string) (*transaction.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.byID[id], nil
}

func (r *fakeTxnRepo) List(context.Context, transaction.Filter) ([]*transaction.Transaction, error) {
	return nil, nil
}

func (r *fakeTxnRepo) ListPending(context.Context, transaction.PendingFilter) ([]*transaction.Transaction, error) {
	return nil, nil
}

func (r *fakeTxnRepo) Settle(_ context.Context, id string, status transaction.Status, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[id]
	if !ok {
		return nil
	}

	if t.IsTerminal() {
		return nil
	}

	t.Status = status
	t.FailureReason = reason

	return nil
}

type fakeLedger struct {
	result ledgerclient.Result
	calls  int
}

func (f *fakeLedger) PostTransaction(context.Context, ledgerclient.Request) ledgerclient.Result {
	f.calls++
	return f.result
}

func newService(accounts *fakeAccountRepo, txns *fakeTxnRepo, ledger LedgerClient) *Service {
	return &Service{
		Accounts:    accounts,
		Idempotency: &idempotency.Engine{Repo: txns},
		Ledger:      ledger,
	}
}

func seedAccount(repo *fakeAccountRepo, org, env, currency string) *account.Account {
	a := &account.Account{
		ID:             uuid.NewString(),
		AccountNumber:  "123456789012",
		OrganizationID: org,
		Environment:    env,
		Currency:       currency,
		Status:         account.StatusActive,
	}
	repo.put(a)

	return a
}

func TestDeposit_happyPath(t *testing.T) {
	accounts := newFakeAccountRepo()
	txns := newFakeTxnRepo()

	acct := seedAccount(accounts, "org-1", "sandbox", "USD")
	accounts.putSentinel("org-1", "sandbox", &account.Account{ID: uuid.NewString(), AccountNumber: account.SystemCashControlAccountNumber, OrganizationID: "org-1", Environment: "sandbox", Currency: "USD", Status: account.StatusActive})

	svc := newService(accounts, txns, &fakeLedger{result: ledgerclient.Result{Outcome: ledgerclient.Ok}})

	res, err := svc.Deposit(context.Background(), acct.ID, 10000, "K1", "corr-1")
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}

	if res.Transaction.Status != transaction.StatusPosted {
		t.Fatalf("expected posted, got %s", res.Transaction.Status)
	}
}

func TestDeposit_idempotentReplay(t *testing.T) {
	accounts := newFakeAccountRepo()
	txns := newFakeTxnRepo()

	acct := seedAccount(accounts, "org-1", "sandbox", "USD")
	accounts.putSentinel("org-1", "sandbox", &account.Account{ID: uuid.NewString(), AccountNumber: account.SystemCashControlAccountNumber, OrganizationID: "org-1", Environment: "sandbox", Currency: "USD", Status: account.StatusActive})

	ledger := &fakeLedger{result: ledgerclient.Result{Outcome: ledgerclient.Ok}}
	svc := newService(accounts, txns, ledger)

	first, err := svc.Deposit(context.Background(), acct.ID, 10000, "K1", "corr-1")
	if err != nil {
		t.Fatalf("first deposit: %v", err)
	}

	second, err := svc.Deposit(context.Background(), acct.ID, 10000, "K1", "corr-2")
	if err != nil {
		t.Fatalf("second deposit: %v", err)
	}

	if first.Transaction.ID != second.Transaction.ID {
		t.Fatalf("expected same transaction id on replay, got %s vs %s", first.Transaction.ID, second.Transaction.ID)
	}

	if ledger.calls != 1 {
		t.Fatalf("expected exactly one ledger call, got %d", ledger.calls)
	}
}

func TestDeposit_mismatchedReplayKeepsFirstWrite(t *testing.T) {
	accounts := newFakeAccountRepo()
	txns := newFakeTxnRepo()

	acct := seedAccount(accounts, "org-1", "sandbox", "USD")
	accounts.putSentinel("org-1", "sandbox", &account.Account{ID: uuid.NewString(), AccountNumber: account.SystemCashControlAccountNumber, OrganizationID: "org-1", Environment: "sandbox", Currency: "USD", Status: account.StatusActive})

	ledger := &fakeLedger{result: ledgerclient.Result{Outcome: ledgerclient.Ok}}
	svc := newService(accounts, txns, ledger)

	first, err := svc.Deposit(context.Background(), acct.ID, 10000, "K1", "corr-1")
	if err != nil {
		t.Fatalf("first deposit: %v", err)
	}

	second, err := svc.Deposit(context.Background(), acct.ID, 500, "K1", "corr-2")
	if err != nil {
		t.Fatalf("second deposit: %v", err)
	}

	if second.Transaction.ID != first.Transaction.ID {
		t.Fatalf("expected the first row back on a mismatched replay, got %s vs %s", second.Transaction.ID, first.Transaction.ID)
	}

	if second.Transaction.Amount != 10000 {
		t.Fatalf("expected the first write's amount 10000 to survive, got %d", second.Transaction.Amount)
	}

	if ledger.calls != 1 {
		t.Fatalf("expected exactly one ledger call, got %d", ledger.calls)
	}
}

func TestWithdraw_ledgerUnreachable_leavesPending(t *testing.T) {
	accounts := newFakeAccountRepo()
	txns := newFakeTxnRepo()

	acct := seedAccount(accounts, "org-1", "sandbox", "USD")
	accounts.putSentinel("org-1", "sandbox", &account.Account{ID: uuid.NewString(), AccountNumber: account.SystemCashControlAccountNumber, OrganizationID: "org-1", Environment: "sandbox", Currency: "USD", Status: account.StatusActive})

	ledger := &fakeLedger{result: ledgerclient.Result{Outcome: ledgerclient.Unreachable, FailureReason: "timeout"}}
	svc := newService(accounts, txns, ledger)

	res, err := svc.Withdraw(context.Background(), acct.ID, 500, "K2", "corr-1")
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	if res.Transaction.Status != transaction.StatusPending {
		t.Fatalf("expected pending, got %s", res.Transaction.Status)
	}

	if res.Transaction.FailureReason == "" {
		t.Fatal("expected a non-empty failure reason")
	}
}

func TestTransfer_crossOrganizationRejected(t *testing.T) {
	accounts := newFakeAccountRepo()
	txns := newFakeTxnRepo()

	from := seedAccount(accounts, "org-1", "sandbox", "USD")
	to := seedAccount(accounts, "org-2", "sandbox", "USD")

	svc := newService(accounts, txns, &fakeLedger{result: ledgerclient.Result{Outcome: ledgerclient.Ok}})

	_, err := svc.Transfer(context.Background(), from.ID, to.ID, 100, "K3", "corr-1")
	if err == nil {
		t.Fatal("expected cross-organization transfer to be rejected")
	}
}

func TestDeposit_zeroAmountRejected(t *testing.T) {
	accounts := newFakeAccountRepo()
	txns := newFakeTxnRepo()

	acct := seedAccount(accounts, "org-1", "sandbox", "USD")
	accounts.putSentinel("org-1", "sandbox", &account.Account{ID: uuid.NewString(), AccountNumber: account.SystemCashControlAccountNumber, OrganizationID: "org-1", Environment: "sandbox", Currency: "USD", Status: account.StatusActive})

	svc := newService(accounts, txns, &fakeLedger{result: ledgerclient.Result{Outcome: ledgerclient.Ok}})

	if _, err := svc.Deposit(context.Background(), acct.ID, 0, "K4", "corr-1"); err == nil {
		t.Fatal("expected amount=0 to be rejected")
	}
}
