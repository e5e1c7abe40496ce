package bootstrap

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	"github.com/gofiber/fiber/v2"
)

const shutdownGrace = 10 * time.Second

// HTTPServer runs the fiber app as a Launcher-managed App (§6.2).
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
