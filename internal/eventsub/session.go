package eventsub

import "encoding/json"

// SessionInfo is the session object of welcome and reconnect messages. Only
// the id is required; the remaining fields are null or absent depending on
// the message.
type SessionInfo struct {
	ID                      string
	Status                  string
	KeepaliveTimeoutSeconds *int
	ReconnectURL            *string
	ConnectedAt             string
}

// SessionWelcomePayload is the payload of a session_welcome message.
//
//	{
//	  "session": {
//	    "id": "44f8cbce_c7ee958a",
//	    "status": "connected",
//	    "keepalive_timeout_seconds": 10,
//	    "reconnect_url": null,
//	    "connected_at": "2023-05-14T12:31:47.995262791Z"
//	  }
//	}
type SessionWelcomePayload struct {
	Session SessionInfo
}

// SessionReconnectPayload is the payload of a session_reconnect message. Its
// session carries the reconnect_url the client must migrate to.
type SessionReconnectPayload struct {
	Session SessionInfo
}

// RevocationPayload is the payload of a revocation message; the subscription
// status names the reason.
type RevocationPayload struct {
	Subscription Subscription
}

func DecodeSessionWelcome(raw json.RawMessage) (SessionWelcomePayload, error) {
	session, err := decodeSessionInfo(raw)
	if err != nil {
		return SessionWelcomePayload{}, err
	}
	return SessionWelcomePayload{Session: session}, nil
}

func DecodeSessionReconnect(raw json.RawMessage) (SessionReconnectPayload, error) {
	session, err := decodeSessionInfo(raw)
	if err != nil {
		return SessionReconnectPayload{}, err
	}
	if session.ReconnectURL == nil {
		return SessionReconnectPayload{}, &DecodeError{Kind: MissingKey, Key: "reconnect_url", Path: "payload.session"}
	}
	return SessionReconnectPayload{Session: session}, nil
}

func decodeSessionInfo(raw json.RawMessage) (SessionInfo, error) {
	root, err := decodeObject(raw, "payload")
	if err != nil {
		return SessionInfo{}, err
	}
	session, err := root.object("session")
	if err != nil {
		return SessionInfo{}, err
	}

	id, err := session.str("id")
	if err != nil {
		return SessionInfo{}, err
	}
	status, err := session.optionalStr("status")
	if err != nil {
		return SessionInfo{}, err
	}
	keepalive, err := session.optionalInt("keepalive_timeout_seconds")
	if err != nil {
		return SessionInfo{}, err
	}
	reconnectURL, err := session.optionalStr("reconnect_url")
	if err != nil {
		return SessionInfo{}, err
	}
	connectedAt, err := session.optionalStr("connected_at")
	if err != nil {
		return SessionInfo{}, err
	}

	return SessionInfo{
		ID:                      id,
		Status:                  deref(status),
		KeepaliveTimeoutSeconds: keepalive,
		ReconnectURL:            reconnectURL,
		ConnectedAt:             deref(connectedAt),
	}, nil
}

func DecodeRevocation(raw json.RawMessage) (RevocationPayload, error) {
	root, err := decodeObject(raw, "payload")
	if err != nil {
		return RevocationPayload{}, err
	}
	subObj, err := root.object("subscription")
	if err != nil {
		return RevocationPayload{}, err
	}
	sub, err := decodeSubscription(subObj)
	if err != nil {
		return RevocationPayload{}, err
	}
	return RevocationPayload{Subscription: sub}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
