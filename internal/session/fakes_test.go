package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/pscheid92/eventsub-client/internal/eventsub"
	"github.com/pscheid92/eventsub-client/internal/transport"
)

var errBoom = errors.New("boom")

// fakeTransport is a scripted Transport. Frames pushed to frames are
// returned by ReadFrame in order.
type fakeTransport struct {
	plainText bool
	failOn    transport.Op
	frames    chan []byte

	done      chan struct{}
	closeOnce sync.Once

	mu         sync.Mutex
	host       string
	port       string
	serverName string
	hostHeader string
	target     string
	header     http.Header
}

func newFakeTransport(plainText bool) *fakeTransport {
	return &fakeTransport{
		plainText: plainText,
		frames:    make(chan []byte, 16),
		done:      make(chan struct{}),
	}
}

func (f *fakeTransport) step(op transport.Op) error {
	if f.failOn == op {
		return &transport.Error{Op: op, Err: errBoom}
	}
	select {
	case <-f.done:
		return &transport.Error{Op: op, Err: transport.ErrClosed}
	default:
		return nil
	}
}

func (f *fakeTransport) Resolve(_ context.Context, host, port string) ([]string, error) {
	f.mu.Lock()
	f.host, f.port = host, port
	f.mu.Unlock()
	if err := f.step(transport.OpResolve); err != nil {
		return nil, err
	}
	return []string{"192.0.2.1:" + port}, nil
}

func (f *fakeTransport) Connect(context.Context, []string) error {
	return f.step(transport.OpConnect)
}

func (f *fakeTransport) TLSHandshake(_ context.Context, serverName string) error {
	f.mu.Lock()
	f.serverName = serverName
	f.mu.Unlock()
	return f.step(transport.OpTLSHandshake)
}

func (f *fakeTransport) WSHandshake(_ context.Context, host, target string, header http.Header) error {
	f.mu.Lock()
	f.hostHeader, f.target, f.header = host, target, header
	f.mu.Unlock()
	return f.step(transport.OpWSHandshake)
}

func (f *fakeTransport) ReadFrame(ctx context.Context) ([]byte, error) {
	if err := f.step(transport.OpRead); err != nil {
		return nil, err
	}

	select {
	case frame := <-f.frames:
		return frame, nil
	case <-f.done:
		return nil, &transport.Error{Op: transport.OpRead, Err: transport.ErrClosed}
	case <-ctx.Done():
		return nil, &transport.Error{Op: transport.OpRead, Err: ctx.Err()}
	}
}

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() { close(f.done) })
	return nil
}

func (f *fakeTransport) isClosed() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

func (f *fakeTransport) dialed() (host, serverName, hostHeader, target string, header http.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.host, f.serverName, f.hostHeader, f.target, f.header
}

// fakeNetwork hands out fakeTransports and lets configure script each one
// by its creation index.
type fakeNetwork struct {
	configure func(i int, t *fakeTransport)

	mu         sync.Mutex
	transports []*fakeTransport
}

func (n *fakeNetwork) factory(plainText bool) Transport {
	t := newFakeTransport(plainText)

	n.mu.Lock()
	i := len(n.transports)
	n.transports = append(n.transports, t)
	n.mu.Unlock()

	if n.configure != nil {
		n.configure(i, t)
	}
	return t
}

func (n *fakeNetwork) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.transports)
}

func (n *fakeNetwork) get(i int) *fakeTransport {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.transports[i]
}

// recordingListener records the callbacks the session tests care about.
type recordingListener struct {
	eventsub.NopListener

	mu      sync.Mutex
	methods []string
	bans    []eventsub.ChannelBanPayload
}

func (l *recordingListener) record(method string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.methods = append(l.methods, method)
}

func (l *recordingListener) OnSessionWelcome(eventsub.Metadata, eventsub.SessionWelcomePayload) {
	l.record("OnSessionWelcome")
}

func (l *recordingListener) OnSessionReconnect(eventsub.Metadata, eventsub.SessionReconnectPayload) {
	l.record("OnSessionReconnect")
}

func (l *recordingListener) OnRevocation(eventsub.Metadata, eventsub.RevocationPayload) {
	l.record("OnRevocation")
}

func (l *recordingListener) OnChannelBan(_ eventsub.Metadata, p eventsub.ChannelBanPayload) {
	l.mu.Lock()
	l.bans = append(l.bans, p)
	l.mu.Unlock()
	l.record("OnChannelBan")
}

func (l *recordingListener) Methods() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.methods...)
}

// runner runs a Session in the background.
type runner struct {
	cancel context.CancelFunc
	errCh  chan error
}

func run(t *testing.T, s *Session) *runner {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	r := &runner{cancel: cancel, errCh: make(chan error, 1)}
	go func() { r.errCh <- s.Run(ctx) }()
	t.Cleanup(cancel)
	return r
}

// stop cancels the session and returns Run's result.
func (r *runner) stop(t *testing.T) error {
	t.Helper()
	r.cancel()
	return r.wait(t)
}

func (r *runner) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func welcomeFrame(id, sessionID string, keepalive int) []byte {
	return []byte(fmt.Sprintf(`{
		"metadata": {"message_id": %q, "message_type": "session_welcome", "message_timestamp": "2023-07-19T14:56:51.634234626Z"},
		"payload": {"session": {"id": %q, "status": "connected", "keepalive_timeout_seconds": %d, "reconnect_url": null, "connected_at": "2023-07-19T14:56:51.616329898Z"}}
	}`, id, sessionID, keepalive))
}

func reconnectFrame(id, url string) []byte {
	return []byte(fmt.Sprintf(`{
		"metadata": {"message_id": %q, "message_type": "session_reconnect", "message_timestamp": "2022-11-18T09:10:11.634234626Z"},
		"payload": {"session": {"id": "old", "status": "reconnecting", "keepalive_timeout_seconds": null, "reconnect_url": %q, "connected_at": "2022-11-16T10:11:12.634234626Z"}}
	}`, id, url))
}

func banFrame(id string) []byte {
	return []byte(fmt.Sprintf(`{
		"metadata": {"message_id": %q, "message_type": "notification", "message_timestamp": "2023-05-20T12:30:55.518375571Z",
			"subscription_type": "channel.ban", "subscription_version": "1"},
		"payload": {
			"subscription": {"id": "4aa632e0", "status": "enabled", "type": "channel.ban", "version": "1",
				"condition": {"broadcaster_user_id": "74378979"},
				"transport": {"method": "websocket", "session_id": "38de428e_b11f07be"},
				"created_at": "2023-05-20T12:30:55.518375571Z", "cost": 0},
			"event": {
				"banned_at": "2023-05-20T12:30:55.518375571Z",
				"broadcaster_user_id": "74378979", "broadcaster_user_login": "testBroadcaster", "broadcaster_user_name": "testBroadcaster",
				"ends_at": "2023-05-20T12:40:55.518375571Z", "is_permanent": false,
				"moderator_user_id": "29024944", "moderator_user_login": "CLIModerator", "moderator_user_name": "CLIModerator",
				"reason": "This is a test event",
				"user_id": "40389552", "user_login": "testFromUser", "user_name": "testFromUser"
			}
		}
	}`, id))
}
