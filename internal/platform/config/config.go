package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	DBMaxConns  int    `env:"DB_MAX_CONNS" default:"10"`
	RedisURL    string `env:"REDIS_URL"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`

	ClassifierURL     string        `env:"CLASSIFIER_URL"`
	ClassifierTimeout time.Duration `env:"CLASSIFIER_TIMEOUT" default:"5s"`

	StatsCacheTTL    time.Duration `env:"STATS_CACHE_TTL" default:"5m"`
	MaxUploadBytes   int64         `env:"MAX_UPLOAD_BYTES" default:"268435456"` // 256 MiB
	UploadRateLimit  float64       `env:"UPLOAD_RATE_LIMIT" default:"0.5"`
	UploadRateBurst  int           `env:"UPLOAD_RATE_BURST" default:"3"`
	MergeMaxAttempts int           `env:"MERGE_MAX_ATTEMPTS" default:"5"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := []struct{ name, value string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_URL", cfg.RedisURL},
		{"CLASSIFIER_URL", cfg.ClassifierURL},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}

	u, err := url.Parse(cfg.ClassifierURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("CLASSIFIER_URL must be an absolute http(s) URL, got %q", cfg.ClassifierURL)
	}

	if cfg.ClassifierTimeout <= 0 {
		return errors.New("CLASSIFIER_TIMEOUT must be positive")
	}
	if cfg.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.UploadRateLimit <= 0 || cfg.UploadRateBurst < 1 {
		return errors.New("UPLOAD_RATE_LIMIT must be positive and UPLOAD_RATE_BURST at least 1")
	}
	if cfg.DBMaxConns < 1 {
		return errors.New("DB_MAX_CONNS must be at least 1")
	}
	if cfg.MergeMaxAttempts < 1 {
		return errors.New("MERGE_MAX_ATTEMPTS must be at least 1")
	}

	return nil
}
