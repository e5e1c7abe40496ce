package passwordreset

import (
	"context"

	"github.com/vertexpay/core/pkg/appcontext"
)

// LoggingMailer stands in for the real email delivery provider, which is an
// external collaborator out of scope here (§1 non-goals): it logs the
// reset token instead of delivering it, so request() still has something
// concrete to call against in environments with no mail provider wired.
type LoggingMailer struct{}

func (LoggingMailer) SendPasswordReset(ctx context.Context, toEmail, plaintextToken string) error {
	appcontext.NewLoggerFromContext(ctx).Infof("password reset token for %s: %s", toEmail, plaintextToken)
	return nil
}
