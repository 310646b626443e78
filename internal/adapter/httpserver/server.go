package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/hashpulse/internal/adapter/metrics"
	"github.com/pscheid92/hashpulse/internal/app"
	"github.com/pscheid92/hashpulse/internal/domain"
	"github.com/pscheid92/hashpulse/internal/platform/config"
)

type ingestService interface {
	Ingest(ctx context.Context, records domain.RecordReader, uploader string) error
}

type statisticsService interface {
	Stats(ctx context.Context, query string) (*domain.StatisticsResult, error)
}

type keywordService interface {
	Popular(ctx context.Context, contains string, page domain.Page) ([]domain.KeywordAggregate, error)
	LeastPopular(ctx context.Context, contains string, page domain.Page) ([]domain.KeywordAggregate, error)
	All(ctx context.Context) ([]domain.KeywordAggregate, error)
}

type postService interface {
	Search(ctx context.Context, facets app.PostFacets, page domain.Page) (*app.PostPage, error)
	ByUploader(ctx context.Context, uploader string, page domain.Page) (*app.PostPage, error)
}

// Services bundles the application services the HTTP layer dispatches to.
type Services struct {
	Ingestor   ingestService
	Statistics statisticsService
	Keywords   keywordService
	Posts      postService
}

type Server struct {
	echo   *echo.Echo
	config *config.Config
	svc    Services

	httpMetrics  *metrics.HTTPMetrics
	registry     *prometheus.Registry
	healthChecks []HealthCheck
	startTime    time.Time
}

// NewServer wires routes and middleware. httpMetrics and registry may be nil,
// in which case request metrics and /metrics are not served.
func NewServer(cfg *config.Config, svc Services, httpMetrics *metrics.HTTPMetrics, registry *prometheus.Registry, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		svc:          svc,
		httpMetrics:  httpMetrics,
		registry:     registry,
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()
	return srv
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
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
