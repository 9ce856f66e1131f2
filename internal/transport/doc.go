// Package transport implements the staged connection to an EventSub
// WebSocket endpoint: name resolution, TCP connect, TLS handshake, WebSocket
// upgrade, then frame reads and writes. Each stage is a separate call so the
// caller can log and recover per step.
package transport
