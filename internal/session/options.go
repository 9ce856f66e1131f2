package session

import (
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/eventsub-client/internal/dedup"
	"github.com/pscheid92/eventsub-client/internal/metrics"
)

// Option configures a Session in New.
type Option func(*Session)

// WithClock sets the clock used for backoff waits and the read watchdog.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Session) { s.clock = clock }
}

// WithTransportFactory replaces how connections are created.
func WithTransportFactory(f TransportFactory) Option {
	return func(s *Session) { s.newTransport = f }
}

// WithMetrics records session metrics into m instead of an unregistered set.
func WithMetrics(m *metrics.SessionMetrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithDeduplicator drops notifications and revocations whose message id
// was already seen.
func WithDeduplicator(d dedup.Deduplicator) Option {
	return func(s *Session) { s.dedup = d }
}

// WithLogger sets the logger; each connection adds its connection_id.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}
