package eventsub

import "encoding/json"

// ChannelBanPayload is the channel.ban version 1 notification payload.
type ChannelBanPayload struct {
	Subscription Subscription
	Event        ChannelBanEvent
}

// ChannelBanEvent is the event object of a channel.ban notification.
type ChannelBanEvent struct {
	BannedAt             string
	BroadcasterUserID    string
	BroadcasterUserLogin string
	BroadcasterUserName  string
	// EndsAt is empty for permanent bans.
	EndsAt             string
	IsPermanent        bool
	ModeratorUserID    string
	ModeratorUserLogin string
	ModeratorUserName  string
	Reason             string
	UserID             string
	UserLogin          string
	UserName           string
}

func DecodeChannelBan(raw json.RawMessage) (ChannelBanPayload, error) {
	sub, event, err := notificationRoot(raw)
	if err != nil {
		return ChannelBanPayload{}, err
	}

	var e ChannelBanEvent
	if e.BannedAt, err = event.str("banned_at"); err != nil {
		return ChannelBanPayload{}, err
	}
	if e.BroadcasterUserID, e.BroadcasterUserLogin, e.BroadcasterUserName, err = userTriple(event, "broadcaster_user"); err != nil {
		return ChannelBanPayload{}, err
	}
	if e.EndsAt, err = event.nullableStr("ends_at"); err != nil {
		return ChannelBanPayload{}, err
	}
	if e.IsPermanent, err = event.boolean("is_permanent"); err != nil {
		return ChannelBanPayload{}, err
	}
	if e.ModeratorUserID, e.ModeratorUserLogin, e.ModeratorUserName, err = userTriple(event, "moderator_user"); err != nil {
		return ChannelBanPayload{}, err
	}
	if e.Reason, err = event.str("reason"); err != nil {
		return ChannelBanPayload{}, err
	}
	if e.UserID, e.UserLogin, e.UserName, err = userTriple(event, "user"); err != nil {
		return ChannelBanPayload{}, err
	}

	return ChannelBanPayload{Subscription: sub, Event: e}, nil
}

// userTriple reads the <prefix>_id, <prefix>_login and <prefix>_name keys
// Twitch uses for every user reference.
func userTriple(o object, prefix string) (id, login, name string, err error) {
	if id, err = o.str(prefix + "_id"); err != nil {
		return "", "", "", err
	}
	if login, err = o.str(prefix + "_login"); err != nil {
		return "", "", "", err
	}
	if name, err = o.str(prefix + "_name"); err != nil {
		return "", "", "", err
	}
	return id, login, name, nil
}
