package main

import (
	"log/slog"

	"github.com/pscheid92/eventsub-client/internal/eventsub"
)

// logListener writes every event it receives to the logger.
type logListener struct {
	logger *slog.Logger
}

var _ eventsub.Listener = (*logListener)(nil)

func newLogListener(logger *slog.Logger) *logListener {
	return &logListener{logger: logger.With("component", "listener")}
}

func (l *logListener) log(md eventsub.Metadata, msg string, args ...any) {
	l.logger.Info(msg, append(md.LogAttrs(), args...)...)
}

func (l *logListener) OnSessionWelcome(md eventsub.Metadata, p eventsub.SessionWelcomePayload) {
	// Subscriptions must be created for this session id within 10 seconds.
	l.log(md, "Session ready", "session_id", p.Session.ID)
}

func (l *logListener) OnSessionReconnect(md eventsub.Metadata, p eventsub.SessionReconnectPayload) {
	l.log(md, "Session moving", "session_id", p.Session.ID)
}

func (l *logListener) OnRevocation(md eventsub.Metadata, p eventsub.RevocationPayload) {
	l.logger.Warn("Subscription revoked", append(md.LogAttrs(),
		"subscription_id", p.Subscription.ID,
		"status", p.Subscription.Status)...)
}

func (l *logListener) OnChannelBan(md eventsub.Metadata, p eventsub.ChannelBanPayload) {
	e := p.Event
	l.log(md, "User banned",
		"broadcaster", e.BroadcasterUserLogin,
		"user", e.UserLogin,
		"moderator", e.ModeratorUserLogin,
		"permanent", e.IsPermanent,
		"ends_at", e.EndsAt)
}

func (l *logListener) OnStreamOnline(md eventsub.Metadata, p eventsub.StreamOnlinePayload) {
	l.log(md, "Stream online", "broadcaster", p.Event.BroadcasterUserLogin, "type", p.Event.Type)
}

func (l *logListener) OnStreamOffline(md eventsub.Metadata, p eventsub.StreamOfflinePayload) {
	l.log(md, "Stream offline", "broadcaster", p.Event.BroadcasterUserLogin)
}

func (l *logListener) OnChannelChatNotification(md eventsub.Metadata, p eventsub.ChannelChatNotificationPayload) {
	l.log(md, "Chat notification",
		"broadcaster", p.Event.BroadcasterUserLogin,
		"notice_type", p.Event.NoticeType,
		"system_message", p.Event.SystemMessage)
}

func (l *logListener) OnChannelUpdate(md eventsub.Metadata, p eventsub.ChannelUpdatePayload) {
	l.log(md, "Channel updated", "broadcaster", p.Event.BroadcasterUserLogin, "title", p.Event.Title)
}

func (l *logListener) OnChannelUpdateV2(md eventsub.Metadata, p eventsub.ChannelUpdateV2Payload) {
	l.log(md, "Channel updated",
		"broadcaster", p.Event.BroadcasterUserLogin,
		"title", p.Event.Title,
		"labels", p.Event.ContentClassificationLabels)
}
