package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pscheid92/eventsub-client/internal/metrics"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "eventsub:message:"

// Redis is a Deduplicator shared by every client using the same Redis.
type Redis struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewRedis(rdb *goredis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Seen(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}

	args := goredis.SetArgs{TTL: r.ttl, Mode: "NX"}
	_, err := r.rdb.SetArgs(ctx, messageKey(messageID), "1", args).Result()
	if errors.Is(err, goredis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to record message id: %w", err)
	}
	return false, nil
}

func messageKey(messageID string) string {
	return keyPrefix + messageID
}

// NewClient creates a go-redis client from a URL such as
// "redis://localhost:6379/0". Command metrics are recorded when m is non-nil.
func NewClient(redisURL string, m *metrics.RedisMetrics) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	if m != nil {
		rdb.AddHook(&MetricsHook{metrics: m})
	}
	return rdb, nil
}
