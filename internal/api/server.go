package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/JAEarly/GardenEye/internal/conf"
	"github.com/JAEarly/GardenEye/internal/datastore"
	"github.com/JAEarly/GardenEye/internal/logging"
	"github.com/JAEarly/GardenEye/internal/observability"
)

// Server wraps the echo instance together with its API controller.
type Server struct {
	Echo       *echo.Echo
	Controller *Controller
	settings   *conf.Settings
	logger     *slog.Logger
}

// NewServer builds the echo instance with its middleware stack, registers
// the API routes and the metrics endpoint, and returns a server ready to
// start.
func NewServer(settings *conf.Settings, store datastore.Interface, metrics *observability.Metrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if settings.WebServer.Debug {
		e.Use(middleware.Logger())
	}

	s := &Server{
		Echo:       e,
		Controller: New(e, settings, store, metrics),
		settings:   settings,
		logger:     logging.ForService("webserver"),
	}
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	return s
}

// Start runs the HTTP server until the context is canceled, then shuts it
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%s", s.settings.WebServer.Port)
		s.logger.Info("starting web server", "address", addr)
		if err := s.Echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Echo.Shutdown(shutdownCtx)
	}
}
