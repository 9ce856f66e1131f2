package config

import (
	"testing"
	"time"

	"github.com/pscheid92/eventsub-client/internal/platform/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "eventsub.wss.twitch.tv", cfg.Host)
	assert.Equal(t, 443, cfg.Port)
	assert.Equal(t, "/ws", cfg.Path)
	assert.Equal(t, version.UserAgent(), cfg.UserAgent)
	assert.False(t, cfg.PlainText)
	assert.Equal(t, 5*time.Second, cfg.KeepaliveGrace)
	assert.Equal(t, 30*time.Second, cfg.HandshakeTimeout)
	assert.Equal(t, time.Second, cfg.BackoffMin)
	assert.Equal(t, 2*time.Minute, cfg.BackoffMax)
	assert.InDelta(t, 2.0, cfg.BackoffMultiplier, 0)
	assert.Zero(t, cfg.BackoffJitter)
	assert.Zero(t, cfg.BackoffMaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.DedupTTL)
	assert.Empty(t, cfg.RedisURL)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("EVENTSUB_HOST", "127.0.0.1")
	t.Setenv("EVENTSUB_PORT", "8080")
	t.Setenv("EVENTSUB_PATH", "/ws/mock")
	t.Setenv("EVENTSUB_USER_AGENT", "my-bot/1.0")
	t.Setenv("EVENTSUB_PLAINTEXT", "true")
	t.Setenv("BACKOFF_MIN", "500ms")
	t.Setenv("BACKOFF_MAX", "10s")
	t.Setenv("BACKOFF_JITTER", "0.2")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("METRICS_ADDR", ":9090")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/ws/mock", cfg.Path)
	assert.Equal(t, "my-bot/1.0", cfg.UserAgent)
	assert.True(t, cfg.PlainText)
	assert.Equal(t, 500*time.Millisecond, cfg.BackoffMin)
	assert.Equal(t, 10*time.Second, cfg.BackoffMax)
	assert.InDelta(t, 0.2, cfg.BackoffJitter, 1e-9)
	assert.Equal(t, "redis://localhost:6379/1", cfg.RedisURL)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"port zero", "EVENTSUB_PORT", "0", "EVENTSUB_PORT must be between 1 and 65535"},
		{"port too large", "EVENTSUB_PORT", "70000", "EVENTSUB_PORT must be between 1 and 65535"},
		{"relative path", "EVENTSUB_PATH", "ws", "EVENTSUB_PATH must start with /"},
		{"negative grace", "EVENTSUB_KEEPALIVE_GRACE", "-1s", "EVENTSUB_KEEPALIVE_GRACE must not be negative"},
		{"zero handshake timeout", "EVENTSUB_HANDSHAKE_TIMEOUT", "0s", "EVENTSUB_HANDSHAKE_TIMEOUT must be positive"},
		{"zero backoff", "BACKOFF_MIN", "0s", "BACKOFF_MIN must be positive"},
		{"max below min", "BACKOFF_MAX", "500ms", "BACKOFF_MAX (500ms) must not be below BACKOFF_MIN (1s)"},
		{"shrinking multiplier", "BACKOFF_MULTIPLIER", "0.5", "BACKOFF_MULTIPLIER must be at least 1"},
		{"jitter too large", "BACKOFF_JITTER", "1", "BACKOFF_JITTER must be in [0, 1)"},
		{"negative attempts", "BACKOFF_MAX_ATTEMPTS", "-1", "BACKOFF_MAX_ATTEMPTS must not be negative"},
		{"zero dedup ttl", "DEDUP_TTL", "0s", "DEDUP_TTL must be positive"},
		{"unknown log format", "LOG_FORMAT", "xml", "LOG_FORMAT must be text or json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MalformedValue(t *testing.T) {
	t.Setenv("BACKOFF_MIN", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load environment variables")
}

func TestValidate_EmptyHost(t *testing.T) {
	cfg := Config{Host: "localhost", Port: 443, Path: "/ws", HandshakeTimeout: time.Second, BackoffMin: time.Second, BackoffMax: time.Second,
		BackoffMultiplier: 2, DedupTTL: time.Minute, LogFormat: "text"}
	require.NoError(t, validate(&cfg))

	cfg.Host = ""
	err := validate(&cfg)
	require.Error(t, err)
	assert.Equal(t, "EVENTSUB_HOST is required", err.Error())
}
