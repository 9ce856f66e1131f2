// Package session runs one EventSub WebSocket session: it establishes the
// connection, reads frames and dispatches them to a Listener, and reconnects
// with exponential backoff when the connection fails. Server-requested
// reconnects migrate to the new URL without backoff.
package session
