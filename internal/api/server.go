// Package api exposes the sentiment service over HTTP. The canonical routes
// return the service's own result schema; the legacy routes adapt it to the
// field names older clients expect.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spacesedan/sentiflow/internal/metrics"
	"github.com/spacesedan/sentiflow/internal/sentiment"
)

const serviceVersion = "1.0.0"

type Options struct {
	Port         string
	AllowOrigins []string
	// Registry receives the HTTP metrics and backs /metrics. A nil Registry gets a fresh one.
	Registry     *prometheus.Registry
	HealthChecks []HealthCheck
	Clock        clockwork.Clock
}

type Server struct {
	echo         *echo.Echo
	service      *sentiment.Service
	port         string
	allowOrigins []string
	registry     *prometheus.Registry
	httpMetrics  *metrics.HTTPMetrics
	healthChecks []HealthCheck
	clock        clockwork.Clock
	startTime    time.Time
}

func NewServer(service *sentiment.Service, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if len(opts.AllowOrigins) == 0 {
		opts.AllowOrigins = []string{"*"}
	}

	srv := &Server{
		echo:         e,
		service:      service,
		port:         opts.Port,
		allowOrigins: opts.AllowOrigins,
		registry:     opts.Registry,
		httpMetrics:  metrics.NewHTTPMetrics(opts.Registry),
		healthChecks: opts.HealthChecks,
		clock:        opts.Clock,
		startTime:    opts.Clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	slog.Info("[API] Starting server", slog.String("port", s.port))
	if err := s.echo.Start(":" + s.port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) now() string {
	return s.clock.Now().UTC().Format(time.RFC3339Nano)
}
