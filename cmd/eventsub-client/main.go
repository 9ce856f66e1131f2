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

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/eventsub-client/internal/config"
	"github.com/pscheid92/eventsub-client/internal/dedup"
	"github.com/pscheid92/eventsub-client/internal/eventsub"
	"github.com/pscheid92/eventsub-client/internal/metrics"
	"github.com/pscheid92/eventsub-client/internal/platform/logging"
	"github.com/pscheid92/eventsub-client/internal/platform/retry"
	"github.com/pscheid92/eventsub-client/internal/platform/version"
	"github.com/pscheid92/eventsub-client/internal/session"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func sessionConfig(cfg *config.Config) session.Config {
	sc := session.DefaultConfig()
	sc.Host = cfg.Host
	sc.Port = cfg.Port
	sc.Path = cfg.Path
	sc.UserAgent = cfg.UserAgent
	sc.PlainText = cfg.PlainText
	sc.KeepaliveGrace = cfg.KeepaliveGrace
	sc.HandshakeTimeout = cfg.HandshakeTimeout
	sc.Backoff = retry.Policy{
		MaxAttempts:    cfg.BackoffMaxAttempts,
		InitialBackoff: cfg.BackoffMin,
		MaxBackoff:     cfg.BackoffMax,
		Multiplier:     cfg.BackoffMultiplier,
		Jitter:         cfg.BackoffJitter,
	}
	return sc
}

// setupRedis connects to Redis, retrying the initial ping a few times so the
// client can start alongside a Redis that is still booting.
func setupRedis(ctx context.Context, clock clockwork.Clock, cfg *config.Config, m *metrics.RedisMetrics) *goredis.Client {
	rdb, err := dedup.NewClient(cfg.RedisURL, m)
	if err != nil {
		slog.Error("Failed to create Redis client", "error", err)
		os.Exit(1)
	}

	policy := retry.Policy{
		MaxAttempts:    5,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Redis not reachable, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}
	ping := func() error { return rdb.Ping(ctx).Err() }
	retryAll := func(error) retry.Action { return retry.Retry }

	if err := retry.DoVoid(ctx, clock, policy, retryAll, ping); err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return rdb
}

func setupDeduplicator(ctx context.Context, clock clockwork.Clock, cfg *config.Config, reg prometheus.Registerer) (dedup.Deduplicator, func()) {
	if cfg.RedisURL == "" {
		slog.Info("Using in-memory message deduplication", "ttl", cfg.DedupTTL)
		return dedup.NewMemory(clock, cfg.DedupTTL), func() {}
	}

	rdb := setupRedis(ctx, clock, cfg, metrics.NewRedisMetrics(reg))
	slog.Info("Using Redis message deduplication", "ttl", cfg.DedupTTL)
	return dedup.NewRedis(rdb, cfg.DedupTTL), func() { _ = rdb.Close() }
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Metrics server shutdown error", "error", err)
		}
	}()

	slog.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logger := logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("EventSub client starting", "version", version.Version, "host", cfg.Host, "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()
	sessionMetrics := metrics.NewSessionMetrics(reg)

	deduplicator, closeDedup := setupDeduplicator(ctx, clock, cfg, reg)
	defer closeDedup()

	s, err := session.New(sessionConfig(cfg), eventsub.NewRegistry(), newLogListener(logger),
		session.WithClock(clock),
		session.WithMetrics(sessionMetrics),
		session.WithDeduplicator(deduplicator),
		session.WithLogger(logger),
	)
	if err != nil {
		slog.Error("Invalid session configuration", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Run(gctx) })
	if cfg.MetricsAddr != "" {
		g.Go(func() error { return serveMetrics(gctx, cfg.MetricsAddr, reg) })
	}

	if err := g.Wait(); err != nil {
		slog.Error("EventSub client stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("EventSub client stopped")
}
