package beta

import (
	"context"

	"github.com/vertexpay/core/components/identity/internal/domain/betaapplication"
	"github.com/vertexpay/core/pkg/appcontext"
)

// LoggingNotifier stands in for the real notification channel (e.g. an
// operator email or Slack post), logging the application instead.
type LoggingNotifier struct{}

func (LoggingNotifier) NotifyBetaApplication(ctx context.Context, a *betaapplication.Application) error {
	appcontext.NewLoggerFromContext(ctx).Infof("beta application received: %s <%s> at %s (%s)", a.Name, a.Email, a.Company, a.UseCase)
	return nil
}
