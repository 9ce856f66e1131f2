package eventsub

import (
	"fmt"
)

// DecodeErrorKind classifies why a JSON value could not be decoded.
type DecodeErrorKind int

const (
	// NotAnObject means the value (or the whole frame) is not a JSON object.
	// Frames that are not valid JSON at all are reported with this kind too.
	NotAnObject DecodeErrorKind = iota + 1
	// MissingKey means a required key is absent.
	MissingKey
	// WrongType means a key is present but holds an incompatible JSON type.
	WrongType
)

func (k DecodeErrorKind) String() string {
	switch k {
	case NotAnObject:
		return "not_an_object"
	case MissingKey:
		return "missing_key"
	case WrongType:
		return "wrong_type"
	default:
		return "unknown"
	}
}

// DecodeError is returned by every decoder in this package. Key is empty for
// NotAnObject errors on the value itself; Path locates the enclosing object.
type DecodeError struct {
	Kind DecodeErrorKind
	Key  string
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	var msg string
	switch e.Kind {
	case NotAnObject:
		msg = fmt.Sprintf("eventsub: %s is not a JSON object", e.location())
	case MissingKey:
		msg = fmt.Sprintf("eventsub: missing key %q in %s", e.Key, e.location())
	case WrongType:
		msg = fmt.Sprintf("eventsub: key %q in %s has the wrong type", e.Key, e.location())
	default:
		msg = "eventsub: decode failed"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) location() string {
	if e.Path == "" {
		return "frame"
	}
	return e.Path
}

// DispatchErrorKind classifies registry lookup misses.
type DispatchErrorKind int

const (
	// NoMessageHandler means the message type is not registered.
	NoMessageHandler DispatchErrorKind = iota + 1
	// NoNotificationHandler means the subscription type and version pair of a
	// notification is not registered.
	NoNotificationHandler
)

func (k DispatchErrorKind) String() string {
	switch k {
	case NoMessageHandler:
		return "no_message_handler"
	case NoNotificationHandler:
		return "no_notification_handler"
	default:
		return "unknown"
	}
}

// DispatchError reports a frame the registry has no handler for. The
// subscription fields are set for NoNotificationHandler only.
type DispatchError struct {
	Kind                DispatchErrorKind
	MessageType         string
	SubscriptionType    string
	SubscriptionVersion string
}

func (e *DispatchError) Error() string {
	if e.Kind == NoNotificationHandler {
		return fmt.Sprintf("eventsub: no notification handler for subscription type %q version %q",
			e.SubscriptionType, e.SubscriptionVersion)
	}
	return fmt.Sprintf("eventsub: no message handler for message type %q", e.MessageType)
}
