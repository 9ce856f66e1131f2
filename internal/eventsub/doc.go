// Package eventsub decodes Twitch EventSub WebSocket frames and routes them
// to a Listener.
//
// Every frame is an envelope of metadata and payload. DecodeEnvelope reads the
// metadata header and keeps the payload raw; a Registry then selects a handler
// by message type and, for notifications, by subscription type and version.
// Payload decoders are pure functions returning either a complete typed value
// or a *DecodeError naming the offending key. Adding an event type means one
// decoder plus one entry in the notification table; nothing else changes.
package eventsub
