package eventsub

import "encoding/json"

// StreamOnlinePayload is the stream.online version 1 notification payload.
type StreamOnlinePayload struct {
	Subscription Subscription
	Event        StreamOnlineEvent
}

// StreamOnlineEvent is the event object of a stream.online notification.
type StreamOnlineEvent struct {
	ID                   string
	BroadcasterUserID    string
	BroadcasterUserLogin string
	BroadcasterUserName  string
	// Type is one of live, playlist, watch_party, premiere or rerun.
	Type      string
	StartedAt string
}

// StreamOfflinePayload is the stream.offline version 1 notification payload.
type StreamOfflinePayload struct {
	Subscription Subscription
	Event        StreamOfflineEvent
}

// StreamOfflineEvent is the event object of a stream.offline notification.
type StreamOfflineEvent struct {
	BroadcasterUserID    string
	BroadcasterUserLogin string
	BroadcasterUserName  string
}

func DecodeStreamOnline(raw json.RawMessage) (StreamOnlinePayload, error) {
	sub, event, err := notificationRoot(raw)
	if err != nil {
		return StreamOnlinePayload{}, err
	}

	var e StreamOnlineEvent
	if e.ID, err = event.str("id"); err != nil {
		return StreamOnlinePayload{}, err
	}
	if e.BroadcasterUserID, e.BroadcasterUserLogin, e.BroadcasterUserName, err = userTriple(event, "broadcaster_user"); err != nil {
		return StreamOnlinePayload{}, err
	}
	if e.Type, err = event.str("type"); err != nil {
		return StreamOnlinePayload{}, err
	}
	if e.StartedAt, err = event.str("started_at"); err != nil {
		return StreamOnlinePayload{}, err
	}

	return StreamOnlinePayload{Subscription: sub, Event: e}, nil
}

func DecodeStreamOffline(raw json.RawMessage) (StreamOfflinePayload, error) {
	sub, event, err := notificationRoot(raw)
	if err != nil {
		return StreamOfflinePayload{}, err
	}

	var e StreamOfflineEvent
	if e.BroadcasterUserID, e.BroadcasterUserLogin, e.BroadcasterUserName, err = userTriple(event, "broadcaster_user"); err != nil {
		return StreamOfflinePayload{}, err
	}

	return StreamOfflinePayload{Subscription: sub, Event: e}, nil
}
