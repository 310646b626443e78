package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/pscheid92/hashpulse/internal/adapter/classifier"
	"github.com/pscheid92/hashpulse/internal/adapter/httpserver"
	"github.com/pscheid92/hashpulse/internal/adapter/metrics"
	"github.com/pscheid92/hashpulse/internal/adapter/postgres"
	"github.com/pscheid92/hashpulse/internal/adapter/redis"
	"github.com/pscheid92/hashpulse/internal/app"
	"github.com/pscheid92/hashpulse/internal/platform/config"
	"github.com/pscheid92/hashpulse/internal/platform/logging"
	"github.com/pscheid92/hashpulse/internal/textproc"
)

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config, m *metrics.DBMetrics) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL,
		postgres.WithTracer(postgres.NewMetricsTracer(m)),
		postgres.WithMaxConns(int32(cfg.DBMaxConns)),
	)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.Migrate(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config, m *metrics.RedisMetrics) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL, m)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func main() {
	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	m := metrics.NewSet()

	pool := setupDB(cfg, m.DB)
	defer pool.Close()

	redisClient := setupRedis(cfg, m.Redis)
	defer func() { _ = redisClient.Close() }()

	posts := postgres.NewPostRepo(pool)
	keywords := postgres.NewKeywordRepo(pool)
	statsCache := redis.NewStatsCache(redisClient, m.Cache)
	classifierClient := classifier.New(cfg.ClassifierURL, cfg.ClassifierTimeout, m.Classifier)

	tokenizer := textproc.NewTokenizer(textproc.DefaultStoplist())

	services := httpserver.Services{
		Ingestor: app.NewIngestor(classifierClient, posts, keywords, statsCache,
			clockwork.NewRealClock(), m.Ingest, cfg.MergeMaxAttempts),
		Statistics: app.NewStatistics(keywords, posts, statsCache, cfg.StatsCacheTTL, tokenizer),
		Keywords:   app.NewKeywords(keywords),
		Posts:      app.NewPosts(posts),
	}

	healthChecks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}

	srv := httpserver.NewServer(cfg, services, m.HTTP, m.Registry, healthChecks)

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
