package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/veritas/internal/adapter/metrics"
	"github.com/pscheid92/veritas/internal/domain"
	"github.com/pscheid92/veritas/internal/platform/config"
)

type appService interface {
	Authenticate(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	CreateRumor(ctx context.Context, authorID uuid.UUID, content string) (*domain.CreatedRumor, error)
	CastVote(ctx context.Context, userID, rumorID uuid.UUID, voteType domain.VoteType) (*domain.VoteResult, error)
	Feed(ctx context.Context, viewerID uuid.UUID, filter domain.FeedFilter) (*domain.Feed, error)
	SettleRumor(ctx context.Context, rumorID uuid.UUID) (domain.Status, error)
	Profile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app            appService
	httpMetrics    *metrics.HTTPMetrics
	metricsHandler http.Handler
	healthChecks   []HealthCheck
	startTime      time.Time
}

type Option func(*Server)

// WithMetrics records request metrics and exposes handler on /metrics.
func WithMetrics(m *metrics.HTTPMetrics, handler http.Handler) Option {
	return func(s *Server) {
		s.httpMetrics = m
		s.metricsHandler = handler
	}
}

func WithHealthChecks(checks ...HealthCheck) Option {
	return func(s *Server) { s.healthChecks = checks }
}

func NewServer(cfg *config.Config, app appService, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:      e,
		config:    cfg,
		app:       app,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
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
