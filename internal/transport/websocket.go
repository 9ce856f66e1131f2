package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeGracePeriod = time.Second

// Options configures a WebSocket. The zero value dials TLS with the system
// roots.
type Options struct {
	// TLSConfig is cloned for every handshake; ServerName is always replaced.
	TLSConfig *tls.Config
	// PlainText skips the TLS step and upgrades with the ws scheme. Used
	// against local mock servers.
	PlainText        bool
	DialTimeout      time.Duration
	HandshakeTimeout time.Duration
	Resolver         *net.Resolver
	ReadLimit        int64
}

// WebSocket is a single client connection. It is used once: after Close it
// cannot be reopened.
type WebSocket struct {
	opts Options

	mu    sync.Mutex
	state State
	conn  net.Conn
	ws    *websocket.Conn

	writeMu sync.Mutex
}

func New(opts Options) *WebSocket {
	if opts.Resolver == nil {
		opts.Resolver = net.DefaultResolver
	}
	return &WebSocket{opts: opts, state: StateIdle}
}

func (t *WebSocket) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// advance moves from one of the expected states to next.
func (t *WebSocket) advance(op Op, next State, from ...State) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range from {
		if t.state == s {
			t.state = next
			return nil
		}
	}
	if t.state == StateClosing || t.state == StateClosed {
		return &Error{Op: op, Err: ErrClosed}
	}
	return &Error{Op: op, Err: fmt.Errorf("%w: %s", ErrInvalidState, t.state)}
}

// attach stores conn unless Close ran while the step was in flight.
func (t *WebSocket) attach(op Op, conn net.Conn) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateClosing || t.state == StateClosed {
		_ = conn.Close()
		return &Error{Op: op, Err: ErrClosed}
	}
	t.conn = conn
	return nil
}

// Resolve looks up host and port and returns dialable host:port addresses.
// Named ports such as "https" are accepted.
func (t *WebSocket) Resolve(ctx context.Context, host, port string) ([]string, error) {
	if err := t.advance(OpResolve, StateResolving, StateIdle); err != nil {
		return nil, err
	}

	portNum, err := t.opts.Resolver.LookupPort(ctx, "tcp", port)
	if err != nil {
		return nil, &Error{Op: OpResolve, Err: err}
	}
	hosts, err := t.opts.Resolver.LookupHost(ctx, host)
	if err != nil {
		return nil, &Error{Op: OpResolve, Err: err}
	}
	if len(hosts) == 0 {
		return nil, &Error{Op: OpResolve, Err: ErrNoAddresses}
	}

	addrs := make([]string, 0, len(hosts))
	for _, h := range hosts {
		addrs = append(addrs, net.JoinHostPort(h, strconv.Itoa(portNum)))
	}
	return addrs, nil
}

// Connect dials each address in order and keeps the first that succeeds.
func (t *WebSocket) Connect(ctx context.Context, addrs []string) error {
	if err := t.advance(OpConnect, StateConnecting, StateResolving); err != nil {
		return err
	}
	if len(addrs) == 0 {
		return &Error{Op: OpConnect, Err: ErrNoAddresses}
	}

	dialer := net.Dialer{Timeout: t.opts.DialTimeout}
	var errs []error
	for _, addr := range addrs {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return t.attach(OpConnect, conn)
	}
	return &Error{Op: OpConnect, Err: errors.Join(errs...)}
}

// TLSHandshake wraps the connected socket in a TLS client using serverName
// for SNI and certificate verification.
func (t *WebSocket) TLSHandshake(ctx context.Context, serverName string) error {
	if serverName == "" {
		return &Error{Op: OpTLSHandshake, Err: ErrEmptySNI}
	}
	if t.opts.PlainText {
		return &Error{Op: OpTLSHandshake, Err: fmt.Errorf("%w: plain-text transport", ErrInvalidState)}
	}
	if err := t.advance(OpTLSHandshake, StateTLSHandshaking, StateConnecting); err != nil {
		return err
	}

	cfg := &tls.Config{}
	if t.opts.TLSConfig != nil {
		cfg = t.opts.TLSConfig.Clone()
	}
	cfg.ServerName = serverName
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS12
	}

	t.mu.Lock()
	raw := t.conn
	t.mu.Unlock()

	tlsConn := tls.Client(raw, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return &Error{Op: OpTLSHandshake, Err: err}
	}
	return t.attach(OpTLSHandshake, tlsConn)
}

// WSHandshake performs the HTTP upgrade over the established connection.
// target is the request path including any query string.
func (t *WebSocket) WSHandshake(ctx context.Context, host, target string, header http.Header) error {
	from := StateTLSHandshaking
	scheme := "wss"
	if t.opts.PlainText {
		from, scheme = StateConnecting, "ws"
	}
	if err := t.advance(OpWSHandshake, StateWSHandshaking, from); err != nil {
		return err
	}

	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	reuse := func(context.Context, string, string) (net.Conn, error) { return conn, nil }
	dialer := websocket.Dialer{
		NetDialContext:    reuse,
		NetDialTLSContext: reuse,
		HandshakeTimeout:  t.opts.HandshakeTimeout,
	}

	ws, resp, err := dialer.DialContext(ctx, scheme+"://"+host+target, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		return &Error{Op: OpWSHandshake, Err: err}
	}
	if t.opts.ReadLimit > 0 {
		ws.SetReadLimit(t.opts.ReadLimit)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateWSHandshaking {
		_ = ws.Close()
		return &Error{Op: OpWSHandshake, Err: ErrClosed}
	}
	t.ws = ws
	t.state = StateOpen
	return nil
}

func (t *WebSocket) openConn(op Op) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case StateOpen:
		return t.ws, nil
	case StateClosing, StateClosed:
		return nil, &Error{Op: op, Err: ErrClosed}
	default:
		return nil, &Error{Op: op, Err: fmt.Errorf("%w: %s", ErrInvalidState, t.state)}
	}
}

// ReadFrame blocks until the next data frame arrives, ctx is done, or the
// connection fails. Control frames are handled internally.
func (t *WebSocket) ReadFrame(ctx context.Context) ([]byte, error) {
	ws, err := t.openConn(OpRead)
	if err != nil {
		return nil, err
	}

	// A previous ReadFrame's context may have fired after its read returned.
	// Clear that deadline before arming this one.
	_ = ws.SetReadDeadline(time.Time{})
	stop := context.AfterFunc(ctx, func() {
		_ = ws.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := ws.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return nil, &Error{Op: OpRead, Err: err}
	}
	return data, nil
}

// WriteFrame sends data as one text frame.
func (t *WebSocket) WriteFrame(ctx context.Context, data []byte) error {
	ws, err := t.openConn(OpWrite)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	_ = ws.SetWriteDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		_ = ws.SetWriteDeadline(time.Now())
	})
	defer stop()

	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return &Error{Op: OpWrite, Err: err}
	}
	return nil
}

// Close releases the connection. It is idempotent and may be called while
// another goroutine is blocked in ReadFrame or a handshake step, which then
// returns an error.
func (t *WebSocket) Close() error {
	t.mu.Lock()
	if t.state == StateClosing || t.state == StateClosed {
		t.mu.Unlock()
		return nil
	}
	t.state = StateClosing
	ws, conn := t.ws, t.conn
	t.mu.Unlock()

	var err error
	switch {
	case ws != nil:
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod))
		err = ws.Close()
	case conn != nil:
		err = conn.Close()
	}

	t.mu.Lock()
	t.state = StateClosed
	t.mu.Unlock()

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return &Error{Op: OpClose, Err: err}
	}
	return nil
}
