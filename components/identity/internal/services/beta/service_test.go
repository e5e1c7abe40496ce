package beta

import (
	"context"
	"errors"
	"testing"

	"github.com/vertexpay/core/components/identity/internal/domain/betaapplication"
)

type fakeApplicationRepo struct {
	created []*betaapplication.Application
	err     error
}

func (r *fakeApplicationRepo) Create(_ context.Context, a *betaapplication.Application) (*betaapplication.Application, error) {
	if r.err != nil {
		return nil, r.err
	}

	r.created = append(r.created, a)

	return a, nil
}

type fakeNotifier struct {
	notified []string
	err      error
}

func (n *fakeNotifier) NotifyBetaApplication(_ context.Context, a *betaapplication.Application) error {
	n.notified = append(n.notified, a.ID)
	return n.err
}

func TestApplyPersistsAndNotifies(t *testing.T) {
	repo := &fakeApplicationRepo{}
	notifier := &fakeNotifier{}
	s := &Service{Applications: repo, Notify: notifier}

	a, err := s.Apply(context.Background(), Input{Name: "Ada", Email: "ada@acme.test", Company: "Acme", UseCase: "ledger reconciliation"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected exactly one application persisted, got %d", len(repo.created))
	}

	if len(notifier.notified) != 1 || notifier.notified[0] != a.ID {
		t.Fatalf("expected the operator notified of %s, got %+v", a.ID, notifier.notified)
	}
}

func TestApplyRejectsMissingFields(t *testing.T) {
	repo := &fakeApplicationRepo{}
	s := &Service{Applications: repo, Notify: &fakeNotifier{}}

	if _, err := s.Apply(context.Background(), Input{Name: "Ada", Email: "ada@acme.test"}); err == nil {
		t.Fatal("expected a missing-field error")
	}

	if len(repo.created) != 0 {
		t.Fatal("expected nothing persisted when validation fails")
	}
}

func TestApplySucceedsWhenNotificationFails(t *testing.T) {
	repo := &fakeApplicationRepo{}
	notifier := &fakeNotifier{err: errors.New("smtp unavailable")}
	s := &Service{Applications: repo, Notify: notifier}

	if _, err := s.Apply(context.Background(), Input{Name: "Ada", Email: "ada@acme.test", Company: "Acme", UseCase: "x"}); err != nil {
		t.Fatalf("Apply should succeed even when notification fails: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatal("expected the application persisted despite the notification failure")
	}
}
