package session

import (
	"context"
	"net/http"

	"github.com/pscheid92/eventsub-client/internal/transport"
)

// Transport is the connection a Session drives. *transport.WebSocket
// implements it.
type Transport interface {
	Resolve(ctx context.Context, host, port string) ([]string, error)
	Connect(ctx context.Context, addrs []string) error
	TLSHandshake(ctx context.Context, serverName string) error
	WSHandshake(ctx context.Context, host, target string, header http.Header) error
	ReadFrame(ctx context.Context) ([]byte, error)
	Close() error
}

var _ Transport = (*transport.WebSocket)(nil)

// TransportFactory creates an unconnected Transport for one connection.
type TransportFactory func(plainText bool) Transport

func websocketFactory(c Config) TransportFactory {
	return func(plainText bool) Transport {
		return transport.New(transport.Options{
			TLSConfig:        c.TLS,
			PlainText:        plainText,
			DialTimeout:      c.HandshakeTimeout,
			HandshakeTimeout: c.HandshakeTimeout,
		})
	}
}
