// Package dedup drops EventSub messages that were already delivered. Twitch
// guarantees at-least-once delivery, so the same message_id can arrive twice,
// including across a reconnect.
package dedup

import (
	"context"
	"time"
)

// DefaultTTL is how long a message id is remembered.
const DefaultTTL = 10 * time.Minute

// Deduplicator records message ids. Seen reports true when id was already
// recorded within the TTL, and records it otherwise.
type Deduplicator interface {
	Seen(ctx context.Context, messageID string) (bool, error)
}
