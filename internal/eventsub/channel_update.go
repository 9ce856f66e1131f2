package eventsub

import "encoding/json"

// ChannelUpdatePayload is the channel.update version 1 notification payload.
type ChannelUpdatePayload struct {
	Subscription Subscription
	Event        ChannelUpdateEvent
}

// ChannelUpdateEvent is the event object of a channel.update v1 notification.
type ChannelUpdateEvent struct {
	BroadcasterUserID    string
	BroadcasterUserLogin string
	BroadcasterUserName  string
	Title                string
	Language             string
	CategoryID           string
	CategoryName         string
	IsMature             bool
}

// ChannelUpdateV2Payload is the channel.update version 2 notification payload.
// Version 2 replaced is_mature with content classification labels.
type ChannelUpdateV2Payload struct {
	Subscription Subscription
	Event        ChannelUpdateV2Event
}

// ChannelUpdateV2Event is the event object of a channel.update v2 notification.
type ChannelUpdateV2Event struct {
	BroadcasterUserID           string
	BroadcasterUserLogin        string
	BroadcasterUserName         string
	Title                       string
	Language                    string
	CategoryID                  string
	CategoryName                string
	ContentClassificationLabels []string
}

type channelInfo struct {
	broadcasterID, broadcasterLogin, broadcasterName string
	title, language, categoryID, categoryName        string
}

func decodeChannelInfo(event object) (channelInfo, error) {
	var c channelInfo
	var err error
	if c.broadcasterID, c.broadcasterLogin, c.broadcasterName, err = userTriple(event, "broadcaster_user"); err != nil {
		return c, err
	}
	if c.title, err = event.str("title"); err != nil {
		return c, err
	}
	if c.language, err = event.str("language"); err != nil {
		return c, err
	}
	if c.categoryID, err = event.str("category_id"); err != nil {
		return c, err
	}
	if c.categoryName, err = event.str("category_name"); err != nil {
		return c, err
	}
	return c, nil
}

func DecodeChannelUpdate(raw json.RawMessage) (ChannelUpdatePayload, error) {
	sub, event, err := notificationRoot(raw)
	if err != nil {
		return ChannelUpdatePayload{}, err
	}
	info, err := decodeChannelInfo(event)
	if err != nil {
		return ChannelUpdatePayload{}, err
	}
	isMature, err := event.boolean("is_mature")
	if err != nil {
		return ChannelUpdatePayload{}, err
	}

	return ChannelUpdatePayload{
		Subscription: sub,
		Event: ChannelUpdateEvent{
			BroadcasterUserID:    info.broadcasterID,
			BroadcasterUserLogin: info.broadcasterLogin,
			BroadcasterUserName:  info.broadcasterName,
			Title:                info.title,
			Language:             info.language,
			CategoryID:           info.categoryID,
			CategoryName:         info.categoryName,
			IsMature:             isMature,
		},
	}, nil
}

func DecodeChannelUpdateV2(raw json.RawMessage) (ChannelUpdateV2Payload, error) {
	sub, event, err := notificationRoot(raw)
	if err != nil {
		return ChannelUpdateV2Payload{}, err
	}
	info, err := decodeChannelInfo(event)
	if err != nil {
		return ChannelUpdateV2Payload{}, err
	}
	labels, err := event.strings("content_classification_labels")
	if err != nil {
		return ChannelUpdateV2Payload{}, err
	}

	return ChannelUpdateV2Payload{
		Subscription: sub,
		Event: ChannelUpdateV2Event{
			BroadcasterUserID:           info.broadcasterID,
			BroadcasterUserLogin:        info.broadcasterLogin,
			BroadcasterUserName:         info.broadcasterName,
			Title:                       info.title,
			Language:                    info.language,
			CategoryID:                  info.categoryID,
			CategoryName:                info.categoryName,
			ContentClassificationLabels: labels,
		},
	}, nil
}
