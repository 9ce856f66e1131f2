package eventsub

// Listener receives decoded events. The session invokes exactly one method per
// successfully decoded and dispatched frame, synchronously on its read loop,
// so implementations must not block; hand slow work off to another goroutine.
type Listener interface {
	OnSessionWelcome(md Metadata, payload SessionWelcomePayload)
	OnSessionReconnect(md Metadata, payload SessionReconnectPayload)
	OnRevocation(md Metadata, payload RevocationPayload)

	OnChannelBan(md Metadata, payload ChannelBanPayload)
	OnStreamOnline(md Metadata, payload StreamOnlinePayload)
	OnStreamOffline(md Metadata, payload StreamOfflinePayload)
	OnChannelChatNotification(md Metadata, payload ChannelChatNotificationPayload)
	OnChannelUpdate(md Metadata, payload ChannelUpdatePayload)
	OnChannelUpdateV2(md Metadata, payload ChannelUpdateV2Payload)
}

// NopListener ignores every event. Embed it to implement only the callbacks
// you care about.
type NopListener struct{}

var _ Listener = NopListener{}

func (NopListener) OnSessionWelcome(Metadata, SessionWelcomePayload)                   {}
func (NopListener) OnSessionReconnect(Metadata, SessionReconnectPayload)               {}
func (NopListener) OnRevocation(Metadata, RevocationPayload)                           {}
func (NopListener) OnChannelBan(Metadata, ChannelBanPayload)                           {}
func (NopListener) OnStreamOnline(Metadata, StreamOnlinePayload)                       {}
func (NopListener) OnStreamOffline(Metadata, StreamOfflinePayload)                     {}
func (NopListener) OnChannelChatNotification(Metadata, ChannelChatNotificationPayload) {}
func (NopListener) OnChannelUpdate(Metadata, ChannelUpdatePayload)                     {}
func (NopListener) OnChannelUpdateV2(Metadata, ChannelUpdateV2Payload)                 {}
