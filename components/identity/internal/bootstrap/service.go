package bootstrap

import (
	libCommons "github.com/LerianStudio/lib-commons/v2/commons"

	out "github.com/vertexpay/core/components/identity/internal/adapters/grpc/out"
	"github.com/vertexpay/core/pkg/mlog"
)

// Service is the application glue composing Identity's HTTP surface into
// one Launcher-managed process (§4.7, §6.2). Unlike Accounts, Identity has
// no background worker or event consumer of its own — it only calls out to
// Accounts' RPC and publishes events, both synchronously from request
// handlers.
type Service struct {
	Config *Config
	Logger mlog.Logger

	HTTPServer     *HTTPServer
	AccountsClient *out.AccountsClient
}

// Run starts the HTTP server and blocks until it returns, e.g. on
// SIGINT/SIGTERM. This is the only code main.go needs.
func (s *Service) Run() {
	defer s.AccountsClient.Close()

	libCommons.NewLauncher(
		libCommons.WithLogger(s.Logger),
		libCommons.RunApp("HTTP Server", s.HTTPServer),
	).Run()
}
