package bootstrap

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	"github.com/gofiber/fiber/v2"
	"google.golang.org/grpc"

	"github.com/vertexpay/core/components/accounts/internal/adapters/rabbitmq"
	"github.com/vertexpay/core/components/accounts/internal/services/retryworker"
	"github.com/vertexpay/core/pkg/mlog"
)

const shutdownGrace = 10 * time.Second

// HTTPServer runs the fiber app as a Launcher-managed App (§6.1).
type HTTPServer struct {
	App     *fiber.App
	Address string
}

func (s *HTTPServer) Run(l *libCommons.Launcher) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.App.Listen(s.Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-quit:
		l.Logger.Info("http server: shutting down")
		return s.App.ShutdownWithTimeout(shutdownGrace)
	}
}

// GRPCServer runs the hand-built CreateDefaultAccount service (§6.3) as a
// Launcher-managed App.
type GRPCServer struct {
	Desc    grpc.ServiceDesc
	Impl    any
	Address string
}

func (g *GRPCServer) Run(l *libCommons.Launcher) error {
	lis, err := net.Listen("tcp", g.Address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer()
	srv.RegisterService(&g.Desc, g.Impl)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-quit:
		l.Logger.Info("grpc server: shutting down")
		srv.GracefulStop()

		return nil
	}
}

// workerRunnable adapts retryworker.Worker's context-based Run to the
// Launcher's App contract, cancelling on process shutdown signal.
type workerRunnable struct {
	Worker *retryworker.Worker
	Logger mlog.Logger
}

func (w *workerRunnable) Run(l *libCommons.Launcher) error {
	return runUntilSignal(l, w.Worker.Run)
}

// consumerRunnable adapts rabbitmq.Consumer the same way.
type consumerRunnable struct {
	Consumer *rabbitmq.Consumer
}

func (c *consumerRunnable) Run(l *libCommons.Launcher) error {
	return runUntilSignal(l, c.Consumer.Run)
}

// runUntilSignal derives a context cancelled on SIGINT/SIGTERM and runs fn
// with it, the shared shape behind every background Runnable in this
// service.
func runUntilSignal(l *libCommons.Launcher, fn func(context.Context) error) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		l.Logger.Info("background runnable: shutting down")
		cancel()
	}()

	return fn(ctx)
}
