package eventsub

import "encoding/json"

// ChannelChatNotificationPayload is the channel.chat.notification version 1
// notification payload. Exactly one of the notice-specific fields is set,
// matching NoticeType, when the notice kind is one this package models.
type ChannelChatNotificationPayload struct {
	Subscription Subscription
	Event        ChannelChatNotificationEvent
}

// ChannelChatNotificationEvent is the event object of a
// channel.chat.notification notification.
type ChannelChatNotificationEvent struct {
	BroadcasterUserID    string
	BroadcasterUserLogin string
	BroadcasterUserName  string
	// Chatter fields are empty when ChatterIsAnonymous is set.
	ChatterUserID      string
	ChatterUserLogin   string
	ChatterUserName    string
	ChatterIsAnonymous bool
	Color              string
	Badges             []ChatBadge
	SystemMessage      string
	MessageID          string
	Message            ChatMessage
	NoticeType         string

	Sub          *ChatSub
	Resub        *ChatResub
	Raid         *ChatRaid
	Announcement *ChatAnnouncement
}

// ChatBadge is one chat badge shown next to the chatter.
type ChatBadge struct {
	SetID string
	ID    string
	Info  string
}

// ChatMessage is the chatter's message split into fragments.
type ChatMessage struct {
	Text      string
	Fragments []ChatFragment
}

// ChatFragment is one text, cheermote, emote or mention piece of a message.
type ChatFragment struct {
	Type string
	Text string
}

// ChatSub is set for notice_type "sub".
type ChatSub struct {
	SubTier        string
	IsPrime        bool
	DurationMonths int
}

// ChatResub is set for notice_type "resub".
type ChatResub struct {
	CumulativeMonths int
	DurationMonths   int
	SubTier          string
	IsPrime          bool
	IsGift           bool
}

// ChatRaid is set for notice_type "raid".
type ChatRaid struct {
	UserID          string
	UserLogin       string
	UserName        string
	ViewerCount     int
	ProfileImageURL string
}

// ChatAnnouncement is set for notice_type "announcement".
type ChatAnnouncement struct {
	Color string
}

func DecodeChannelChatNotification(raw json.RawMessage) (ChannelChatNotificationPayload, error) {
	sub, event, err := notificationRoot(raw)
	if err != nil {
		return ChannelChatNotificationPayload{}, err
	}

	var e ChannelChatNotificationEvent
	if e.BroadcasterUserID, e.BroadcasterUserLogin, e.BroadcasterUserName, err = userTriple(event, "broadcaster_user"); err != nil {
		return ChannelChatNotificationPayload{}, err
	}
	if e.ChatterIsAnonymous, err = event.boolean("chatter_is_anonymous"); err != nil {
		return ChannelChatNotificationPayload{}, err
	}
	if e.ChatterUserID, err = event.nullableStr("chatter_user_id"); err != nil {
		return ChannelChatNotificationPayload{}, err
	}
	if e.ChatterUserLogin, err = event.nullableStr("chatter_user_login"); err != nil {
		return ChannelChatNotificationPayload{}, err
	}
	if e.ChatterUserName, err = event.nullableStr("chatter_user_name"); err != nil {
		return ChannelChatNotificationPayload{}, err
	}
	if e.Color, err = event.str("color"); err != nil {
		return ChannelChatNotificationPayload{}, err
	}
	if e.Badges, err = decodeBadges(event); err != nil {
		return ChannelChatNotificationPayload{}, err
	}
	if e.SystemMessage, err = event.str("system_message"); err != nil {
		return ChannelChatNotificationPayload{}, err
	}
	if e.MessageID, err = event.str("message_id"); err != nil {
		return ChannelChatNotificationPayload{}, err
	}
	if e.Message, err = decodeChatMessage(event); err != nil {
		return ChannelChatNotificationPayload{}, err
	}
	if e.NoticeType, err = event.str("notice_type"); err != nil {
		return ChannelChatNotificationPayload{}, err
	}
	if err = decodeNotice(event, &e); err != nil {
		return ChannelChatNotificationPayload{}, err
	}

	return ChannelChatNotificationPayload{Subscription: sub, Event: e}, nil
}

func decodeBadges(event object) ([]ChatBadge, error) {
	items, err := event.objects("badges")
	if err != nil {
		return nil, err
	}
	badges := make([]ChatBadge, 0, len(items))
	for _, item := range items {
		var b ChatBadge
		if b.SetID, err = item.str("set_id"); err != nil {
			return nil, err
		}
		if b.ID, err = item.str("id"); err != nil {
			return nil, err
		}
		if b.Info, err = item.str("info"); err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}
	return badges, nil
}

func decodeChatMessage(event object) (ChatMessage, error) {
	msg, err := event.object("message")
	if err != nil {
		return ChatMessage{}, err
	}
	text, err := msg.str("text")
	if err != nil {
		return ChatMessage{}, err
	}
	items, err := msg.objects("fragments")
	if err != nil {
		return ChatMessage{}, err
	}
	fragments := make([]ChatFragment, 0, len(items))
	for _, item := range items {
		var f ChatFragment
		if f.Type, err = item.str("type"); err != nil {
			return ChatMessage{}, err
		}
		if f.Text, err = item.str("text"); err != nil {
			return ChatMessage{}, err
		}
		fragments = append(fragments, f)
	}
	return ChatMessage{Text: text, Fragments: fragments}, nil
}

// decodeNotice fills the notice-specific object named by notice_type. Other
// notice kinds are carried by NoticeType and SystemMessage alone.
func decodeNotice(event object, e *ChannelChatNotificationEvent) error {
	switch e.NoticeType {
	case "sub":
		obj, err := event.object("sub")
		if err != nil {
			return err
		}
		var s ChatSub
		if s.SubTier, err = obj.str("sub_tier"); err != nil {
			return err
		}
		if s.IsPrime, err = obj.boolean("is_prime"); err != nil {
			return err
		}
		if s.DurationMonths, err = obj.count("duration_months"); err != nil {
			return err
		}
		e.Sub = &s
	case "resub":
		obj, err := event.object("resub")
		if err != nil {
			return err
		}
		var r ChatResub
		if r.CumulativeMonths, err = obj.count("cumulative_months"); err != nil {
			return err
		}
		if r.DurationMonths, err = obj.count("duration_months"); err != nil {
			return err
		}
		if r.SubTier, err = obj.str("sub_tier"); err != nil {
			return err
		}
		if r.IsPrime, err = obj.boolean("is_prime"); err != nil {
			return err
		}
		if r.IsGift, err = obj.boolean("is_gift"); err != nil {
			return err
		}
		e.Resub = &r
	case "raid":
		obj, err := event.object("raid")
		if err != nil {
			return err
		}
		var r ChatRaid
		if r.UserID, r.UserLogin, r.UserName, err = userTriple(obj, "user"); err != nil {
			return err
		}
		if r.ViewerCount, err = obj.count("viewer_count"); err != nil {
			return err
		}
		if r.ProfileImageURL, err = obj.str("profile_image_url"); err != nil {
			return err
		}
		e.Raid = &r
	case "announcement":
		obj, err := event.object("announcement")
		if err != nil {
			return err
		}
		var a ChatAnnouncement
		if a.Color, err = obj.str("color"); err != nil {
			return err
		}
		e.Announcement = &a
	}
	return nil
}
