// Package beta implements the private-beta access application feature
// (supplementing the distilled spec directly from the original source's
// beta-apply route: name/email/company/use_case, persisted and
// best-effort emailed to the operator).
package beta

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vertexpay/core/components/identity/internal/domain/betaapplication"
	"github.com/vertexpay/core/pkg/apperr"
	"github.com/vertexpay/core/pkg/appcontext"
)

// Notifier is the out-of-band collaborator notified of a new application;
// delivery failure is logged but never surfaced (mirrors password-reset's
// Mailer).
type Notifier interface {
	NotifyBetaApplication(ctx context.Context, a *betaapplication.Application) error
}

// Service is the beta-application service.
type Service struct {
	Applications betaapplication.Repository
	Notify       Notifier
}

// Input is the beta-apply form payload.
type Input struct {
	Name    string
	Email   string
	Company string
	UseCase string
}

// Apply persists a beta application and best-effort notifies the operator.
func (s *Service) Apply(ctx context.Context, in Input) (*betaapplication.Application, error) {
	logger := appcontext.NewLoggerFromContext(ctx)

	if in.Name == "" || in.Email == "" || in.Company == "" || in.UseCase == "" {
		return nil, apperr.ValidationError{Code: "MISSING_FIELD", Title: "Missing field", Message: "name, email, company, and use_case are all required"}
	}

	a, err := s.Applications.Create(ctx, &betaapplication.Application{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Company:   in.Company,
		UseCase:   in.UseCase,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, apperr.NewInternalError(err)
	}

	if s.Notify != nil {
		if err := s.Notify.NotifyBetaApplication(ctx, a); err != nil {
			logger.Warnf("beta application notification failed for %s: %s", a.ID, err)
		}
	}

	return a, nil
}
