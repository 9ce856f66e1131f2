package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/eventsub-client/internal/dedup"
	"github.com/pscheid92/eventsub-client/internal/eventsub"
	"github.com/pscheid92/eventsub-client/internal/metrics"
	"github.com/pscheid92/eventsub-client/internal/platform/correlation"
	"github.com/pscheid92/eventsub-client/internal/platform/retry"
	"github.com/pscheid92/eventsub-client/internal/transport"
)

// ErrKeepaliveTimeout is the read error when no frame arrived within the
// keepalive window.
var ErrKeepaliveTimeout = errors.New("no frame within keepalive window")

var errNoWelcome = errors.New("first frame was not a session_welcome")

// Session maintains one EventSub WebSocket session and delivers its
// events to a Listener.
type Session struct {
	cfg      Config
	endpoint endpoint
	registry *eventsub.Registry
	listener eventsub.Listener

	clock        clockwork.Clock
	newTransport TransportFactory
	metrics      *metrics.SessionMetrics
	dedup        dedup.Deduplicator
	logger       *slog.Logger
	backoff      *retry.Backoff

	mu        sync.Mutex
	state     transport.State
	sessionID string
	keepalive time.Duration
}

// connection is one established transport.
type connection struct {
	t   Transport
	log *slog.Logger
}

// New validates cfg and returns a Session ready to Run. Invalid
// configuration is reported as a *ConfigError.
func New(cfg Config, registry *eventsub.Registry, listener eventsub.Listener, opts ...Option) (*Session, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		return nil, &ConfigError{Field: "Registry", Reason: "must not be nil"}
	}
	if listener == nil {
		return nil, &ConfigError{Field: "Listener", Reason: "must not be nil"}
	}

	s := &Session{
		cfg:      cfg,
		endpoint: configuredEndpoint(cfg),
		registry: registry,
		listener: listener,
		clock:    clockwork.NewRealClock(),
		logger:   slog.Default(),
		backoff:  retry.NewBackoff(cfg.Backoff),
		state:    transport.StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newTransport == nil {
		s.newTransport = websocketFactory(cfg)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewSessionMetrics(prometheus.NewRegistry())
	}
	s.logger = s.logger.With("component", "eventsub_session")
	return s, nil
}

// State returns the lifecycle state of the current connection.
func (s *Session) State() transport.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionID returns the id from the most recent session_welcome, or "".
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Session) setState(state transport.State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.metrics.State.Set(float64(state))
}

// Run connects and reads until ctx is cancelled, reconnecting on failure.
// It returns nil after a shutdown, and an error only when the backoff
// policy's attempt limit is exhausted.
func (s *Session) Run(ctx context.Context) error {
	defer s.setState(transport.StateClosed)

	var conn *connection
	for {
		if ctx.Err() != nil {
			return nil
		}

		if conn == nil {
			c, err := s.establish(ctx, s.endpoint)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if err := s.waitBackoff(ctx, err); err != nil {
					return err
				}
				continue
			}
			s.backoff.Reset()
			conn = c
		}

		next, err := s.readLoop(ctx, conn)
		if next != nil {
			conn = next
			continue
		}
		conn = nil
		if ctx.Err() != nil {
			return nil
		}
		s.logger.Warn("Connection lost", "error", err)
		if err := s.waitBackoff(ctx, err); err != nil {
			return err
		}
	}
}

// waitBackoff sleeps for the next backoff delay. A non-nil error means the
// attempt limit is reached and Run must give up.
func (s *Session) waitBackoff(ctx context.Context, cause error) error {
	s.setState(transport.StateReconnecting)

	delay := s.backoff.Next()
	if s.backoff.Exhausted() {
		return fmt.Errorf("failed after %d connection attempts: %w", s.backoff.Attempts(), cause)
	}
	if s.cfg.Backoff.OnRetry != nil {
		s.cfg.Backoff.OnRetry(s.backoff.Attempts(), cause, delay)
	}

	s.metrics.Reconnects.WithLabelValues("backoff").Inc()
	s.metrics.BackoffSeconds.Observe(delay.Seconds())
	s.logger.Info("Reconnecting after backoff", "attempt", s.backoff.Attempts(), "delay", delay)

	if !retry.Wait(ctx, s.clock, delay) {
		s.logger.Debug("Backoff interrupted by shutdown")
	}
	return nil
}

// establish runs every connection step against ep. On failure the
// transport is closed and the failing step is logged.
func (s *Session) establish(ctx context.Context, ep endpoint) (*connection, error) {
	t := s.newTransport(ep.plainText)
	log := s.logger.With("connection_id", uuid.NewString(), "host", ep.host)

	stop := context.AfterFunc(ctx, func() { _ = t.Close() })
	defer stop()

	// Real time: the dialer and TLS stack translate this deadline into
	// socket deadlines.
	hctx, cancel := context.WithTimeout(ctx, s.cfg.HandshakeTimeout)
	defer cancel()

	fail := func(step transport.Op, err error) (*connection, error) {
		_ = t.Close()
		s.metrics.ConnectionAttempts.WithLabelValues("failure").Inc()
		if ctx.Err() == nil {
			log.Warn("Connection step failed", "step", string(step), "endpoint", ep.String(), "error", err)
		}
		return nil, err
	}

	s.setState(transport.StateResolving)
	addrs, err := t.Resolve(hctx, ep.host, ep.port)
	if err != nil {
		return fail(transport.OpResolve, err)
	}

	s.setState(transport.StateConnecting)
	if err := t.Connect(hctx, addrs); err != nil {
		return fail(transport.OpConnect, err)
	}

	if !ep.plainText {
		s.setState(transport.StateTLSHandshaking)
		if err := t.TLSHandshake(hctx, ep.host); err != nil {
			return fail(transport.OpTLSHandshake, err)
		}
	}

	s.setState(transport.StateWSHandshaking)
	header := http.Header{"User-Agent": []string{s.cfg.UserAgent}}
	if err := t.WSHandshake(hctx, ep.hostHeader, ep.target, header); err != nil {
		return fail(transport.OpWSHandshake, err)
	}

	s.mu.Lock()
	s.keepalive = 0
	s.mu.Unlock()
	s.setState(transport.StateOpen)
	s.metrics.ConnectionAttempts.WithLabelValues("success").Inc()
	log.Info("Connected", "endpoint", ep.String())

	return &connection{t: t, log: log}, nil
}

// readLoop reads frames from c until it fails or the server asks to
// migrate. A successful migration returns the new connection; c is closed
// in every case.
func (s *Session) readLoop(ctx context.Context, c *connection) (*connection, error) {
	stop := context.AfterFunc(ctx, func() { _ = c.t.Close() })
	defer stop()

	for {
		if ctx.Err() != nil {
			_ = c.t.Close()
			return nil, ctx.Err()
		}

		frame, err := s.read(ctx, c)
		if err != nil {
			_ = c.t.Close()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}

		reconnectURL := s.handleFrame(ctx, c, frame).reconnectURL
		if reconnectURL == "" {
			continue
		}

		next, err := s.migrate(ctx, c, reconnectURL)
		if err != nil {
			_ = c.t.Close()
			return nil, err
		}
		return next, nil
	}
}

// read reads one frame, bounded by the keepalive window.
func (s *Session) read(ctx context.Context, c *connection) ([]byte, error) {
	rctx, cancel := context.WithCancelCause(ctx)
	watchdog := s.clock.AfterFunc(s.readTimeout(), func() { cancel(ErrKeepaliveTimeout) })
	frame, err := c.t.ReadFrame(rctx)
	watchdog.Stop()
	expired := errors.Is(context.Cause(rctx), ErrKeepaliveTimeout)
	cancel(nil)

	if err != nil && expired && ctx.Err() == nil {
		err = fmt.Errorf("%w: %w", ErrKeepaliveTimeout, err)
	}
	return frame, err
}

func (s *Session) readTimeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keepalive > 0 {
		return s.keepalive + s.cfg.KeepaliveGrace
	}
	return s.cfg.WelcomeTimeout
}

// migrate connects to the reconnect URL while the old connection is still
// open and hands over once the new connection is welcomed.
func (s *Session) migrate(ctx context.Context, old *connection, reconnectURL string) (*connection, error) {
	ep, err := reconnectEndpoint(reconnectURL)
	if err != nil {
		old.log.Warn("Ignoring unusable reconnect url", "error", err)
		return nil, err
	}

	s.metrics.Reconnects.WithLabelValues("migration").Inc()
	old.log.Info("Server requested reconnect", "endpoint", ep.String())

	next, err := s.establish(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("migration to %s failed: %w", ep, err)
	}
	if err := s.handover(ctx, old, next); err != nil {
		_ = next.t.Close()
		return nil, fmt.Errorf("migration to %s failed: %w", ep, err)
	}
	return next, nil
}

type readResult struct {
	frame []byte
	err   error
}

// handover keeps dispatching frames from old until the first frame on next
// has been handled. That frame must be a session_welcome. old is closed on
// return, after every frame already read from it has been dispatched.
func (s *Session) handover(ctx context.Context, old, next *connection) error {
	first := make(chan readResult, 1)
	go func() {
		frame, err := s.read(ctx, next)
		first <- readResult{frame, err}
	}()

	oldFrames := make(chan readResult)
	go func() {
		defer close(oldFrames)
		for {
			frame, err := s.read(ctx, old)
			oldFrames <- readResult{frame, err}
			if err != nil {
				return
			}
		}
	}()

	pending := oldFrames
	for {
		select {
		case r := <-pending:
			if r.err != nil {
				// Twitch may close the old connection first.
				old.log.Debug("Old connection ended during migration", "error", r.err)
				pending = nil
				continue
			}
			s.handleFrame(ctx, old, r.frame)

		case r := <-first:
			_ = old.t.Close()
			for rest := range oldFrames {
				if rest.err == nil {
					s.handleFrame(ctx, old, rest.frame)
				}
			}

			if r.err != nil {
				return r.err
			}
			if !s.handleFrame(ctx, next, r.frame).welcomed {
				return errNoWelcome
			}
			return nil
		}
	}
}

// handled is what the Session learned from one frame.
type handled struct {
	welcomed     bool
	reconnectURL string
}

// handleFrame decodes, deduplicates and dispatches one frame. Failures are
// logged and the frame is dropped.
func (s *Session) handleFrame(ctx context.Context, c *connection, frame []byte) handled {
	s.metrics.FramesReceived.Inc()

	env, err := eventsub.DecodeEnvelope(frame)
	if err != nil {
		s.drop(correlation.WithFrame(ctx, correlation.Undecodable()), c, eventsub.Metadata{}, err)
		return handled{}
	}
	md := env.Metadata
	fctx := correlation.WithFrame(ctx, correlation.Frame{MessageID: md.MessageID, MessageType: md.MessageType})

	if s.isDuplicate(fctx, c, md) {
		return handled{}
	}

	ctl := &controlListener{Listener: s.listener}
	if err := s.registry.Dispatch(env, ctl); err != nil {
		s.drop(fctx, c, md, err)
		return handled{}
	}

	if md.MessageType == eventsub.MessageTypeNotification {
		typ, version, _ := md.Subscription()
		s.metrics.Notifications.WithLabelValues(typ, version).Inc()
	}
	if ctl.welcome != nil {
		s.welcomed(fctx, c, *ctl.welcome)
	}
	return handled{welcomed: ctl.welcome != nil, reconnectURL: ctl.reconnectURL}
}

// isDuplicate consults the deduplicator for the message types Twitch may
// redeliver. Deduplicator errors let the frame through.
func (s *Session) isDuplicate(ctx context.Context, c *connection, md eventsub.Metadata) bool {
	if s.dedup == nil {
		return false
	}
	if md.MessageType != eventsub.MessageTypeNotification && md.MessageType != eventsub.MessageTypeRevocation {
		return false
	}

	seen, err := s.dedup.Seen(ctx, md.MessageID)
	if err != nil {
		c.log.WarnContext(ctx, "Deduplication failed, delivering frame", "error", err)
		return false
	}
	if seen {
		s.metrics.FramesDropped.WithLabelValues(metrics.DropDuplicate).Inc()
		c.log.DebugContext(ctx, "Dropped duplicate message", md.LogAttrs()...)
	}
	return seen
}

func (s *Session) welcomed(ctx context.Context, c *connection, info eventsub.SessionInfo) {
	s.mu.Lock()
	s.sessionID = info.ID
	if info.KeepaliveTimeoutSeconds != nil && *info.KeepaliveTimeoutSeconds > 0 {
		s.keepalive = time.Duration(*info.KeepaliveTimeoutSeconds) * time.Second
	}
	keepalive := s.keepalive
	s.mu.Unlock()

	c.log.InfoContext(ctx, "Session welcomed", "session_id", info.ID, "keepalive", keepalive)
}

func (s *Session) drop(ctx context.Context, c *connection, md eventsub.Metadata, err error) {
	attrs := append(md.LogAttrs(), "error", err)
	reason := metrics.DropDispatch

	var decErr *eventsub.DecodeError
	var dispErr *eventsub.DispatchError
	switch {
	case errors.As(err, &decErr):
		reason = metrics.DropDecode
		attrs = append(attrs, "kind", decErr.Kind.String())
		if decErr.Key != "" {
			attrs = append(attrs, "key", decErr.Key)
		}
	case errors.As(err, &dispErr):
		attrs = append(attrs, "kind", dispErr.Kind.String())
	}

	s.metrics.FramesDropped.WithLabelValues(reason).Inc()
	c.log.WarnContext(ctx, "Dropped frame", attrs...)
}
