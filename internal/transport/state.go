package transport

import (
	"errors"
	"fmt"
)

// State is a connection lifecycle state.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateConnecting
	StateTLSHandshaking
	StateWSHandshaking
	StateOpen
	StateClosing
	StateClosed
	// StateReconnecting is never entered by a WebSocket. Sessions report it
	// while waiting to establish a replacement.
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateConnecting:
		return "connecting"
	case StateTLSHandshaking:
		return "tls_handshaking"
	case StateWSHandshaking:
		return "ws_handshaking"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Op names the transport step that failed.
type Op string

const (
	OpResolve      Op = "resolve"
	OpConnect      Op = "connect"
	OpTLSHandshake Op = "tls_handshake"
	OpWSHandshake  Op = "ws_handshake"
	OpRead         Op = "read"
	OpWrite        Op = "write"
	OpClose        Op = "close"
)

var (
	ErrInvalidState = errors.New("operation not valid in current state")
	ErrClosed       = errors.New("transport closed")
	ErrNoAddresses  = errors.New("no addresses to connect to")
	ErrEmptySNI     = errors.New("empty TLS server name")
)

// Error is returned by every WebSocket operation.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
