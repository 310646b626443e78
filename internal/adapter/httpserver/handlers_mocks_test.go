package httpserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pscheid92/hashpulse/internal/adapter/metrics"
	"github.com/pscheid92/hashpulse/internal/app"
	"github.com/pscheid92/hashpulse/internal/domain"
	"github.com/pscheid92/hashpulse/internal/platform/config"
)

// --- Mock implementations ---

type mockIngestor struct {
	ingestFn func(ctx context.Context, records domain.RecordReader, uploader string) error
}

func (m *mockIngestor) Ingest(ctx context.Context, records domain.RecordReader, uploader string) error {
	if m.ingestFn != nil {
		return m.ingestFn(ctx, records, uploader)
	}
	return errors.New("not implemented")
}

type mockStatistics struct {
	statsFn func(ctx context.Context, query string) (*domain.StatisticsResult, error)
}

func (m *mockStatistics) Stats(ctx context.Context, query string) (*domain.StatisticsResult, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx, query)
	}
	return nil, errors.New("not implemented")
}

type mockKeywords struct {
	popularFn      func(ctx context.Context, contains string, page domain.Page) ([]domain.KeywordAggregate, error)
	leastPopularFn func(ctx context.Context, contains string, page domain.Page) ([]domain.KeywordAggregate, error)
	allFn          func(ctx context.Context) ([]domain.KeywordAggregate, error)
}

func (m *mockKeywords) Popular(ctx context.Context, contains string, page domain.Page) ([]domain.KeywordAggregate, error) {
	if m.popularFn != nil {
		return m.popularFn(ctx, contains, page)
	}
	return nil, nil
}

func (m *mockKeywords) LeastPopular(ctx context.Context, contains string, page domain.Page) ([]domain.KeywordAggregate, error) {
	if m.leastPopularFn != nil {
		return m.leastPopularFn(ctx, contains, page)
	}
	return nil, nil
}

func (m *mockKeywords) All(ctx context.Context) ([]domain.KeywordAggregate, error) {
	if m.allFn != nil {
		return m.allFn(ctx)
	}
	return nil, nil
}

type mockPosts struct {
	searchFn     func(ctx context.Context, facets app.PostFacets, page domain.Page) (*app.PostPage, error)
	byUploaderFn func(ctx context.Context, uploader string, page domain.Page) (*app.PostPage, error)
}

func (m *mockPosts) Search(ctx context.Context, facets app.PostFacets, page domain.Page) (*app.PostPage, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, facets, page)
	}
	return &app.PostPage{Posts: []domain.Post{}}, nil
}

func (m *mockPosts) ByUploader(ctx context.Context, uploader string, page domain.Page) (*app.PostPage, error) {
	if m.byUploaderFn != nil {
		return m.byUploaderFn(ctx, uploader, page)
	}
	return &app.PostPage{Posts: []domain.Post{}}, nil
}

// --- Test server ---

type testServerOpts struct {
	services     Services
	healthChecks []HealthCheck
	configure    func(*config.Config)
	httpMetrics  *metrics.HTTPMetrics
	registry     *prometheus.Registry
}

type testServerOption func(*testServerOpts)

func withIngestor(m *mockIngestor) testServerOption {
	return func(o *testServerOpts) { o.services.Ingestor = m }
}

func withStatistics(m *mockStatistics) testServerOption {
	return func(o *testServerOpts) { o.services.Statistics = m }
}

func withKeywords(m *mockKeywords) testServerOption {
	return func(o *testServerOpts) { o.services.Keywords = m }
}

func withPosts(m *mockPosts) testServerOption {
	return func(o *testServerOpts) { o.services.Posts = m }
}

func withHealthChecks(checks ...HealthCheck) testServerOption {
	return func(o *testServerOpts) { o.healthChecks = checks }
}

func withConfig(fn func(*config.Config)) testServerOption {
	return func(o *testServerOpts) { o.configure = fn }
}

func withMetrics() testServerOption {
	return func(o *testServerOpts) {
		o.registry = prometheus.NewRegistry()
		o.httpMetrics = metrics.NewHTTPMetrics(o.registry)
	}
}

func newTestServer(t *testing.T, opts ...testServerOption) *Server {
	t.Helper()

	o := testServerOpts{
		services: Services{
			Ingestor:   &mockIngestor{},
			Statistics: &mockStatistics{},
			Keywords:   &mockKeywords{},
			Posts:      &mockPosts{},
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := &config.Config{
		AppEnv:          "test",
		Port:            "0",
		MaxUploadBytes:  1 << 20,
		UploadRateLimit: 100,
		UploadRateBurst: 100,
	}
	if o.configure != nil {
		o.configure(cfg)
	}

	return NewServer(cfg, o.services, o.httpMetrics, o.registry, o.healthChecks)
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func newRequest(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}
