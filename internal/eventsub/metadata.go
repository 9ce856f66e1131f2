package eventsub

import (
	"encoding/json"
)

// Message types sent by the EventSub WebSocket server.
const (
	MessageTypeSessionWelcome   = "session_welcome"
	MessageTypeSessionKeepalive = "session_keepalive"
	MessageTypeSessionReconnect = "session_reconnect"
	MessageTypeNotification     = "notification"
	MessageTypeRevocation       = "revocation"
)

// Metadata is the envelope header of a frame.
//
//	{
//	  "message_id": "befa7b53-d79d-478f-86b9-120f112b044e",
//	  "message_type": "notification",
//	  "message_timestamp": "2022-11-16T10:11:12.464757833Z",
//	  "subscription_type": "channel.ban",
//	  "subscription_version": "1"
//	}
//
// The subscription pair is only sent with notification and revocation messages.
type Metadata struct {
	MessageID        string
	MessageType      string
	MessageTimestamp string

	SubscriptionType    string
	SubscriptionVersion string

	hasSubscriptionType    bool
	hasSubscriptionVersion bool
}

// Subscription returns the subscription type and version, and whether both
// were present in the header.
func (m Metadata) Subscription() (typ, version string, ok bool) {
	return m.SubscriptionType, m.SubscriptionVersion, m.hasSubscriptionType && m.hasSubscriptionVersion
}

// LogAttrs returns slog key/value pairs identifying the frame.
func (m Metadata) LogAttrs() []any {
	attrs := []any{"message_type", m.MessageType}
	if m.hasSubscriptionType {
		attrs = append(attrs, "subscription_type", m.SubscriptionType)
	}
	if m.hasSubscriptionVersion {
		attrs = append(attrs, "subscription_version", m.SubscriptionVersion)
	}
	return attrs
}

// DecodeMetadata decodes the metadata object. The three message keys are
// required strings. The optional subscription keys are read leniently: a
// value that is not a string is treated as absent.
func DecodeMetadata(raw json.RawMessage) (Metadata, error) {
	root, err := decodeObject(raw, "metadata")
	if err != nil {
		return Metadata{}, err
	}

	messageID, err := root.str("message_id")
	if err != nil {
		return Metadata{}, err
	}
	messageType, err := root.str("message_type")
	if err != nil {
		return Metadata{}, err
	}
	messageTimestamp, err := root.str("message_timestamp")
	if err != nil {
		return Metadata{}, err
	}

	subscriptionType, hasType := root.lenientStr("subscription_type")
	subscriptionVersion, hasVersion := root.lenientStr("subscription_version")

	return Metadata{
		MessageID:              messageID,
		MessageType:            messageType,
		MessageTimestamp:       messageTimestamp,
		SubscriptionType:       subscriptionType,
		SubscriptionVersion:    subscriptionVersion,
		hasSubscriptionType:    hasType,
		hasSubscriptionVersion: hasVersion,
	}, nil
}

// Envelope is a frame with decoded metadata and a still-raw payload.
type Envelope struct {
	Metadata   Metadata
	Payload    json.RawMessage
	HasPayload bool
}

// DecodeEnvelope parses one frame. The payload is not inspected; a missing
// payload is only an error once a handler tries to use it.
func DecodeEnvelope(frame []byte) (Envelope, error) {
	root, err := decodeObject(frame, "")
	if err != nil {
		return Envelope{}, err
	}

	rawMetadata, err := root.lookup("metadata")
	if err != nil {
		return Envelope{}, err
	}
	metadata, err := DecodeMetadata(rawMetadata)
	if err != nil {
		return Envelope{}, err
	}

	payload, ok := root.fields["payload"]
	return Envelope{Metadata: metadata, Payload: payload, HasPayload: ok}, nil
}
