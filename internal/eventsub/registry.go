package eventsub

import (
	"cmp"
	"encoding/json"
	"slices"
)

// SubscriptionKey identifies a notification handler.
type SubscriptionKey struct {
	Type    string
	Version string
}

func (k SubscriptionKey) String() string {
	return k.Type + "@" + k.Version
}

// MessageHandler handles one message type. The registry is passed so the
// notification handler can consult the second-level table.
type MessageHandler func(r *Registry, md Metadata, payload json.RawMessage, l Listener) error

// NotificationHandler decodes one subscription type/version and invokes the
// matching Listener method.
type NotificationHandler func(md Metadata, payload json.RawMessage, l Listener) error

// Registry maps message types and subscription keys to handlers. It is
// immutable after NewRegistry returns and safe to share between sessions.
type Registry struct {
	messages      map[string]MessageHandler
	notifications map[SubscriptionKey]NotificationHandler
}

// NewRegistry builds the registry of every supported message and
// subscription type.
func NewRegistry() *Registry {
	return &Registry{
		messages:      messageHandlers(),
		notifications: notificationHandlers(),
	}
}

func messageHandlers() map[string]MessageHandler {
	return map[string]MessageHandler{
		MessageTypeSessionWelcome: func(_ *Registry, md Metadata, payload json.RawMessage, l Listener) error {
			return deliver(md, payload, l, DecodeSessionWelcome, Listener.OnSessionWelcome)
		},
		MessageTypeSessionKeepalive: func(*Registry, Metadata, json.RawMessage, Listener) error {
			// Keepalives only prove liveness; the session's read watchdog
			// is reset by every frame, so there is nothing to deliver.
			return nil
		},
		MessageTypeSessionReconnect: func(_ *Registry, md Metadata, payload json.RawMessage, l Listener) error {
			return deliver(md, payload, l, DecodeSessionReconnect, Listener.OnSessionReconnect)
		},
		MessageTypeRevocation: func(_ *Registry, md Metadata, payload json.RawMessage, l Listener) error {
			return deliver(md, payload, l, DecodeRevocation, Listener.OnRevocation)
		},
		MessageTypeNotification: func(r *Registry, md Metadata, payload json.RawMessage, l Listener) error {
			return r.dispatchNotification(md, payload, l)
		},
	}
}

// notificationHandlers is the subscription table. Add new subscription types
// here together with their decoder and Listener method.
func notificationHandlers() map[SubscriptionKey]NotificationHandler {
	return map[SubscriptionKey]NotificationHandler{
		{"channel.ban", "1"}:               notification(DecodeChannelBan, Listener.OnChannelBan),
		{"stream.online", "1"}:             notification(DecodeStreamOnline, Listener.OnStreamOnline),
		{"stream.offline", "1"}:            notification(DecodeStreamOffline, Listener.OnStreamOffline),
		{"channel.chat.notification", "1"}: notification(DecodeChannelChatNotification, Listener.OnChannelChatNotification),
		{"channel.update", "1"}:            notification(DecodeChannelUpdate, Listener.OnChannelUpdate),
		{"channel.update", "2"}:            notification(DecodeChannelUpdateV2, Listener.OnChannelUpdateV2),
	}
}

func notification[P any](decode func(json.RawMessage) (P, error), callback func(Listener, Metadata, P)) NotificationHandler {
	return func(md Metadata, payload json.RawMessage, l Listener) error {
		return deliver(md, payload, l, decode, callback)
	}
}

// deliver decodes the payload completely before invoking the callback, so a
// failed decode never reaches the listener.
func deliver[P any](md Metadata, payload json.RawMessage, l Listener, decode func(json.RawMessage) (P, error), callback func(Listener, Metadata, P)) error {
	p, err := decode(payload)
	if err != nil {
		return err
	}
	callback(l, md, p)
	return nil
}

// Dispatch routes a decoded envelope to its handler. It returns a
// *DispatchError for unregistered types and a *DecodeError for malformed
// payloads; in both cases no listener method is called.
func (r *Registry) Dispatch(env Envelope, l Listener) error {
	handler, ok := r.messages[env.Metadata.MessageType]
	if !ok {
		return &DispatchError{Kind: NoMessageHandler, MessageType: env.Metadata.MessageType}
	}
	if !env.HasPayload {
		return &DecodeError{Kind: MissingKey, Key: "payload"}
	}
	return handler(r, env.Metadata, env.Payload, l)
}

// HandleFrame decodes and dispatches one raw frame. The returned metadata is
// the zero value when the envelope itself could not be decoded.
func (r *Registry) HandleFrame(frame []byte, l Listener) (Metadata, error) {
	env, err := DecodeEnvelope(frame)
	if err != nil {
		return Metadata{}, err
	}
	return env.Metadata, r.Dispatch(env, l)
}

func (r *Registry) dispatchNotification(md Metadata, payload json.RawMessage, l Listener) error {
	typ, version, ok := md.Subscription()
	if !ok {
		return &DispatchError{
			Kind:                NoNotificationHandler,
			MessageType:         md.MessageType,
			SubscriptionType:    typ,
			SubscriptionVersion: version,
		}
	}

	handler, ok := r.notifications[SubscriptionKey{Type: typ, Version: version}]
	if !ok {
		return &DispatchError{
			Kind:                NoNotificationHandler,
			MessageType:         md.MessageType,
			SubscriptionType:    typ,
			SubscriptionVersion: version,
		}
	}
	return handler(md, payload, l)
}

// MessageTypes lists the registered message types in sorted order.
func (r *Registry) MessageTypes() []string {
	types := make([]string, 0, len(r.messages))
	for typ := range r.messages {
		types = append(types, typ)
	}
	slices.Sort(types)
	return types
}

// Subscriptions lists the registered subscription keys sorted by type, then
// version.
func (r *Registry) Subscriptions() []SubscriptionKey {
	keys := make([]SubscriptionKey, 0, len(r.notifications))
	for key := range r.notifications {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b SubscriptionKey) int {
		return cmp.Or(cmp.Compare(a.Type, b.Type), cmp.Compare(a.Version, b.Version))
	})
	return keys
}

// Supports reports whether notifications of the given type and version are
// delivered.
func (r *Registry) Supports(typ, version string) bool {
	_, ok := r.notifications[SubscriptionKey{Type: typ, Version: version}]
	return ok
}
