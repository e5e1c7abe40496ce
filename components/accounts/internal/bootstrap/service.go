package bootstrap

import (
	libCommons "github.com/LerianStudio/lib-commons/v2/commons"

	"github.com/vertexpay/core/components/accounts/internal/adapters/rabbitmq"
	"github.com/vertexpay/core/components/accounts/internal/services/retryworker"
	"github.com/vertexpay/core/pkg/mlog"
)

// Service is the application glue composing the Accounts component's
// HTTP/gRPC surfaces and background runnables (retry worker, event
// consumer) into one Launcher-managed process (§4.5, §4.6, §4.7).
type Service struct {
	Config *Config
	Logger mlog.Logger

	HTTPServer *HTTPServer
	GRPCServer *GRPCServer
	Worker     *retryworker.Worker
	Consumer   *rabbitmq.Consumer
}

// Run starts every runnable concurrently and blocks until all have
// returned, e.g. on SIGINT/SIGTERM. This is the only code main.go needs.
func (s *Service) Run() {
	libCommons.NewLauncher(
		libCommons.WithLogger(s.Logger),
		libCommons.RunApp("HTTP Server", s.HTTPServer),
		libCommons.RunApp("gRPC Server", s.GRPCServer),
		libCommons.RunApp("Retry Worker", &workerRunnable{Worker: s.Worker, Logger: s.Logger}),
		libCommons.RunApp("Event Consumer", &consumerRunnable{Consumer: s.Consumer}),
	).Run()
}
