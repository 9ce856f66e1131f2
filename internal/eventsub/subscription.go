package eventsub

import "encoding/json"

// Subscription is the subscription object embedded in notification and
// revocation payloads.
type Subscription struct {
	ID        string
	Status    string
	Type      string
	Version   string
	Condition map[string]string
	Transport SubscriptionTransport
	CreatedAt string
	Cost      int
}

// SubscriptionTransport names how notifications for a subscription are
// delivered; SessionID is set for the websocket method.
type SubscriptionTransport struct {
	Method    string
	SessionID string
}

// DecodeSubscription decodes a subscription object.
//
//	{
//	  "id": "4aa632e0-fca3-590b-e981-bbd12abdb3fe",
//	  "status": "enabled",
//	  "type": "channel.ban",
//	  "version": "1",
//	  "condition": {"broadcaster_user_id": "74378979"},
//	  "transport": {"method": "websocket", "session_id": "38de428e_b11f07be"},
//	  "created_at": "2023-05-20T12:30:55.518375571Z",
//	  "cost": 0
//	}
func DecodeSubscription(raw json.RawMessage) (Subscription, error) {
	root, err := decodeObject(raw, "subscription")
	if err != nil {
		return Subscription{}, err
	}
	return decodeSubscription(root)
}

func decodeSubscription(root object) (Subscription, error) {
	id, err := root.str("id")
	if err != nil {
		return Subscription{}, err
	}
	status, err := root.str("status")
	if err != nil {
		return Subscription{}, err
	}
	typ, err := root.str("type")
	if err != nil {
		return Subscription{}, err
	}
	version, err := root.str("version")
	if err != nil {
		return Subscription{}, err
	}
	condition, err := root.optionalStringMap("condition")
	if err != nil {
		return Subscription{}, err
	}

	transportObj, err := root.object("transport")
	if err != nil {
		return Subscription{}, err
	}
	method, err := transportObj.str("method")
	if err != nil {
		return Subscription{}, err
	}
	// webhook and conduit transports carry no session id
	sessionID, _ := transportObj.lenientStr("session_id")

	createdAt, err := root.str("created_at")
	if err != nil {
		return Subscription{}, err
	}
	cost, err := root.count("cost")
	if err != nil {
		return Subscription{}, err
	}

	return Subscription{
		ID:        id,
		Status:    status,
		Type:      typ,
		Version:   version,
		Condition: condition,
		Transport: SubscriptionTransport{Method: method, SessionID: sessionID},
		CreatedAt: createdAt,
		Cost:      cost,
	}, nil
}

// notificationRoot splits a notification payload into its subscription and
// its event object.
func notificationRoot(raw json.RawMessage) (Subscription, object, error) {
	root, err := decodeObject(raw, "payload")
	if err != nil {
		return Subscription{}, object{}, err
	}
	subObj, err := root.object("subscription")
	if err != nil {
		return Subscription{}, object{}, err
	}
	sub, err := decodeSubscription(subObj)
	if err != nil {
		return Subscription{}, object{}, err
	}
	event, err := root.object("event")
	if err != nil {
		return Subscription{}, object{}, err
	}
	return sub, event, nil
}
