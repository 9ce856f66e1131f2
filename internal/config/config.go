package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pscheid92/eventsub-client/internal/platform/version"
	"go-simpler.org/env"
)

type Config struct {
	Host             string        `env:"EVENTSUB_HOST" default:"eventsub.wss.twitch.tv"`
	Port             int           `env:"EVENTSUB_PORT" default:"443"`
	Path             string        `env:"EVENTSUB_PATH" default:"/ws"`
	UserAgent        string        `env:"EVENTSUB_USER_AGENT"`
	PlainText        bool          `env:"EVENTSUB_PLAINTEXT" default:"false"`
	KeepaliveGrace   time.Duration `env:"EVENTSUB_KEEPALIVE_GRACE" default:"5s"`
	HandshakeTimeout time.Duration `env:"EVENTSUB_HANDSHAKE_TIMEOUT" default:"30s"`

	BackoffMin         time.Duration `env:"BACKOFF_MIN" default:"1s"`
	BackoffMax         time.Duration `env:"BACKOFF_MAX" default:"2m"`
	BackoffMultiplier  float64       `env:"BACKOFF_MULTIPLIER" default:"2"`
	BackoffJitter      float64       `env:"BACKOFF_JITTER" default:"0"`
	BackoffMaxAttempts int           `env:"BACKOFF_MAX_ATTEMPTS" default:"0"` // 0 retries forever

	DedupTTL time.Duration `env:"DEDUP_TTL" default:"10m"`
	RedisURL string        `env:"REDIS_URL"`

	MetricsAddr string `env:"METRICS_ADDR"`
	LogLevel    string `env:"LOG_LEVEL" default:"info"`
	LogFormat   string `env:"LOG_FORMAT" default:"text"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Host == "" {
		return errors.New("EVENTSUB_HOST is required")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("EVENTSUB_PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if !strings.HasPrefix(cfg.Path, "/") {
		return fmt.Errorf("EVENTSUB_PATH must start with /, got %q", cfg.Path)
	}
	if cfg.KeepaliveGrace < 0 {
		return errors.New("EVENTSUB_KEEPALIVE_GRACE must not be negative")
	}
	if cfg.HandshakeTimeout <= 0 {
		return errors.New("EVENTSUB_HANDSHAKE_TIMEOUT must be positive")
	}

	if cfg.BackoffMin <= 0 {
		return errors.New("BACKOFF_MIN must be positive")
	}
	if cfg.BackoffMax < cfg.BackoffMin {
		return fmt.Errorf("BACKOFF_MAX (%s) must not be below BACKOFF_MIN (%s)", cfg.BackoffMax, cfg.BackoffMin)
	}
	if cfg.BackoffMultiplier < 1 {
		return fmt.Errorf("BACKOFF_MULTIPLIER must be at least 1, got %v", cfg.BackoffMultiplier)
	}
	if cfg.BackoffJitter < 0 || cfg.BackoffJitter >= 1 {
		return fmt.Errorf("BACKOFF_JITTER must be in [0, 1), got %v", cfg.BackoffJitter)
	}
	if cfg.BackoffMaxAttempts < 0 {
		return errors.New("BACKOFF_MAX_ATTEMPTS must not be negative")
	}

	if cfg.DedupTTL <= 0 {
		return errors.New("DEDUP_TTL must be positive")
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	return nil
}
