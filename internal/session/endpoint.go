package session

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// endpoint is where a transport connects to.
type endpoint struct {
	host       string // resolution and SNI
	port       string
	hostHeader string
	target     string // path and query
	plainText  bool
}

func configuredEndpoint(c Config) endpoint {
	port := strconv.Itoa(c.Port)
	return endpoint{
		host:       c.Host,
		port:       port,
		hostHeader: hostHeader(c.Host, port, c.PlainText),
		target:     c.Path,
		plainText:  c.PlainText,
	}
}

// reconnectEndpoint parses the reconnect_url of a session_reconnect message.
func reconnectEndpoint(raw string) (endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return endpoint{}, fmt.Errorf("invalid reconnect url: %w", err)
	}

	var plainText bool
	switch u.Scheme {
	case "wss":
	case "ws":
		plainText = true
	default:
		return endpoint{}, fmt.Errorf("invalid reconnect url: unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return endpoint{}, fmt.Errorf("invalid reconnect url: missing host")
	}

	port := u.Port()
	if port == "" {
		port = defaultPort(plainText)
	}
	return endpoint{
		host:       u.Hostname(),
		port:       port,
		hostHeader: hostHeader(u.Hostname(), port, plainText),
		target:     u.RequestURI(),
		plainText:  plainText,
	}, nil
}

func defaultPort(plainText bool) string {
	if plainText {
		return "80"
	}
	return "443"
}

func hostHeader(host, port string, plainText bool) string {
	if port == defaultPort(plainText) {
		return host
	}
	return net.JoinHostPort(host, port)
}

func (e endpoint) String() string {
	scheme := "wss"
	if e.plainText {
		scheme = "ws"
	}
	return scheme + "://" + e.hostHeader + e.target
}
