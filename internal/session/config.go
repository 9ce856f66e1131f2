package session

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/pscheid92/eventsub-client/internal/platform/retry"
	"github.com/pscheid92/eventsub-client/internal/platform/version"
)

const (
	DefaultHost             = "eventsub.wss.twitch.tv"
	DefaultPort             = 443
	DefaultPath             = "/ws"
	DefaultKeepaliveGrace   = 5 * time.Second
	DefaultHandshakeTimeout = 30 * time.Second

	// Twitch sends the welcome within 10 seconds of the upgrade.
	welcomeDeadline = 10 * time.Second
)

// Config describes the endpoint and the recovery behaviour of a Session.
type Config struct {
	Host      string
	Port      int
	Path      string
	UserAgent string
	PlainText bool
	// TLS is cloned for every handshake. Nil uses the system roots.
	TLS *tls.Config

	Backoff retry.Policy

	// KeepaliveGrace is added to the server's keepalive timeout before a
	// silent connection is considered dead.
	KeepaliveGrace time.Duration
	// WelcomeTimeout bounds reads until the session_welcome arrives.
	// Zero means 10s plus KeepaliveGrace.
	WelcomeTimeout   time.Duration
	HandshakeTimeout time.Duration
}

// DefaultConfig returns the configuration for the production Twitch endpoint.
func DefaultConfig() Config {
	return Config{
		Host:      DefaultHost,
		Port:      DefaultPort,
		Path:      DefaultPath,
		UserAgent: version.UserAgent(),
		Backoff: retry.Policy{
			InitialBackoff: time.Second,
			MaxBackoff:     2 * time.Minute,
			Multiplier:     2,
		},
		KeepaliveGrace:   DefaultKeepaliveGrace,
		HandshakeTimeout: DefaultHandshakeTimeout,
	}
}

func (c Config) withDefaults() Config {
	if c.WelcomeTimeout == 0 {
		c.WelcomeTimeout = welcomeDeadline + c.KeepaliveGrace
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = DefaultHandshakeTimeout
	}
	return c
}

// ConfigError reports a configuration that can never connect. It is
// returned before any network activity and is never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid session config: %s: %s", e.Field, e.Reason)
}

// Validate reports the first invalid field as a *ConfigError.
func (c Config) Validate() error {
	if c.Host == "" {
		return &ConfigError{Field: "Host", Reason: "must not be empty"}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &ConfigError{Field: "Port", Reason: fmt.Sprintf("%d is not a valid port", c.Port)}
	}
	if !strings.HasPrefix(c.Path, "/") {
		return &ConfigError{Field: "Path", Reason: fmt.Sprintf("%q must start with /", c.Path)}
	}
	if c.UserAgent == "" {
		return &ConfigError{Field: "UserAgent", Reason: "must not be empty"}
	}
	if c.TLS != nil && c.TLS.MaxVersion != 0 && c.TLS.MinVersion > c.TLS.MaxVersion {
		return &ConfigError{Field: "TLS", Reason: "MinVersion is above MaxVersion"}
	}
	if err := c.Backoff.Validate(); err != nil {
		return &ConfigError{Field: "Backoff", Reason: err.Error()}
	}
	if c.KeepaliveGrace < 0 {
		return &ConfigError{Field: "KeepaliveGrace", Reason: "must not be negative"}
	}
	if c.WelcomeTimeout < 0 {
		return &ConfigError{Field: "WelcomeTimeout", Reason: "must not be negative"}
	}
	if c.HandshakeTimeout < 0 {
		return &ConfigError{Field: "HandshakeTimeout", Reason: "must not be negative"}
	}
	return nil
}
