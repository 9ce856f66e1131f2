package eventsub

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const subscriptionJSON = `{
	"id": "4aa632e0-fca3-590b-e981-bbd12abdb3fe",
	"status": "enabled",
	"type": "%TYPE%",
	"version": "%VERSION%",
	"condition": {"broadcaster_user_id": "74378979"},
	"transport": {"method": "websocket", "session_id": "38de428e_b11f07be"},
	"created_at": "2023-05-20T12:30:55.518375571Z",
	"cost": 0
}`

func subscriptionFor(typ, version string) string {
	return strings.NewReplacer("%TYPE%", typ, "%VERSION%", version).Replace(subscriptionJSON)
}

func notificationFrame(typ, version, event string) []byte {
	return []byte(`{
		"metadata": {
			"message_id": "befa7b53-d79d-478f-86b9-120f112b044e",
			"message_type": "notification",
			"message_timestamp": "2023-05-20T12:30:55.518375571Z",
			"subscription_type": "` + typ + `",
			"subscription_version": "` + version + `"
		},
		"payload": {
			"subscription": ` + subscriptionFor(typ, version) + `,
			"event": ` + event + `
		}
	}`)
}

const welcomeFrame = `{"metadata":{"message_id":"1","message_type":"session_welcome","message_timestamp":"t"},"payload":{"session":{"id":"44f8cbce_c7ee958a"}}}`

const fullWelcomeFrame = `{
	"metadata": {
		"message_id": "96a3f3b5-5dec-4eed-908e-e11ee657416c",
		"message_type": "session_welcome",
		"message_timestamp": "2023-07-19T14:56:51.634234626Z"
	},
	"payload": {
		"session": {
			"id": "AQoQILE98gtqShGmLD7AM6yJThAB",
			"status": "connected",
			"connected_at": "2023-07-19T14:56:51.616329898Z",
			"keepalive_timeout_seconds": 10,
			"reconnect_url": null
		}
	}
}`

const reconnectFrame = `{
	"metadata": {
		"message_id": "84c1e79a-2a4b-4c13-ba0b-4312293e9308",
		"message_type": "session_reconnect",
		"message_timestamp": "2022-11-18T09:10:11.634234626Z"
	},
	"payload": {
		"session": {
			"id": "AQoQexAWVYKSTIu4ec_2VAxyuhAB",
			"status": "reconnecting",
			"keepalive_timeout_seconds": null,
			"reconnect_url": "wss://eventsub.wss.twitch.tv?...",
			"connected_at": "2022-11-16T10:11:12.634234626Z"
		}
	}
}`

const keepaliveFrame = `{
	"metadata": {
		"message_id": "84c1e79a-2a4b-4c13-ba0b-4312293e9308",
		"message_type": "session_keepalive",
		"message_timestamp": "2023-07-19T10:11:12.634234626Z"
	},
	"payload": {}
}`

const revocationFrame = `{
	"metadata": {
		"message_id": "84c1e79a-2a4b-4c13-ba0b-4312293e9308",
		"message_type": "revocation",
		"message_timestamp": "2022-11-16T10:11:12.464757833Z",
		"subscription_type": "channel.follow",
		"subscription_version": "1"
	},
	"payload": {
		"subscription": {
			"id": "f1c2a387-161a-49f9-a165-0f21d7a4e1c4",
			"status": "authorization_revoked",
			"type": "channel.follow",
			"version": "1",
			"cost": 1,
			"condition": {"broadcaster_user_id": "12826"},
			"transport": {"method": "websocket", "session_id": "AQoQexAWVYKSTIu4ec_2VAxyuhAB"},
			"created_at": "2022-11-16T10:11:12.464757833Z"
		}
	}
}`

const channelBanEvent = `{
	"banned_at": "2023-05-20T12:30:55.518375571Z",
	"broadcaster_user_id": "74378979",
	"broadcaster_user_login": "testBroadcaster",
	"broadcaster_user_name": "testBroadcaster",
	"ends_at": "2023-05-20T12:40:55.518375571Z",
	"is_permanent": false,
	"moderator_user_id": "29024944",
	"moderator_user_login": "CLIModerator",
	"moderator_user_name": "CLIModerator",
	"reason": "This is a test event",
	"user_id": "40389552",
	"user_login": "testFromUser",
	"user_name": "testFromUser"
}`

const streamOnlineEvent = `{
	"id": "9001",
	"broadcaster_user_id": "1337",
	"broadcaster_user_login": "cool_user",
	"broadcaster_user_name": "Cool_User",
	"type": "live",
	"started_at": "2020-10-11T10:11:12.123Z"
}`

const streamOfflineEvent = `{
	"broadcaster_user_id": "1337",
	"broadcaster_user_login": "cool_user",
	"broadcaster_user_name": "Cool_User"
}`

const channelUpdateV1Event = `{
	"broadcaster_user_id": "1337",
	"broadcaster_user_login": "cool_user",
	"broadcaster_user_name": "Cool_User",
	"title": "Best Stream Ever",
	"language": "en",
	"category_id": "12453",
	"category_name": "Grand Theft Auto",
	"is_mature": true
}`

const channelUpdateV2Event = `{
	"broadcaster_user_id": "1337",
	"broadcaster_user_login": "cool_user",
	"broadcaster_user_name": "Cool_User",
	"title": "Best Stream Ever",
	"language": "en",
	"category_id": "12453",
	"category_name": "Grand Theft Auto",
	"content_classification_labels": ["MatureGame", "Gambling"]
}`

const chatNotificationResubEvent = `{
	"broadcaster_user_id": "1971641",
	"broadcaster_user_login": "streamer",
	"broadcaster_user_name": "streamer",
	"chatter_user_id": "49912639",
	"chatter_user_login": "viewer23",
	"chatter_user_name": "viewer23",
	"chatter_is_anonymous": false,
	"color": "",
	"badges": [{"set_id": "subscriber", "id": "12", "info": "16"}],
	"system_message": "viewer23 subscribed at Tier 1. They've subscribed for 10 months!",
	"message_id": "d62235c8-47ff-a4f4--84e8-5a29a65a9c03",
	"message": {
		"text": "",
		"fragments": []
	},
	"notice_type": "resub",
	"sub": null,
	"resub": {
		"cumulative_months": 10,
		"duration_months": 0,
		"streak_months": null,
		"sub_tier": "1000",
		"is_prime": false,
		"is_gift": false,
		"gifter_is_anonymous": null,
		"gifter_user_id": null,
		"gifter_user_name": null,
		"gifter_user_login": null
	},
	"raid": null,
	"announcement": null
}`

const chatNotificationRaidEvent = `{
	"broadcaster_user_id": "1971641",
	"broadcaster_user_login": "streamer",
	"broadcaster_user_name": "streamer",
	"chatter_user_id": null,
	"chatter_user_login": null,
	"chatter_user_name": null,
	"chatter_is_anonymous": true,
	"color": "#FF0000",
	"badges": [],
	"system_message": "raider is raiding with 42 viewers",
	"message_id": "a7d0f7e6",
	"message": {
		"text": "hello",
		"fragments": [{"type": "text", "text": "hello", "cheermote": null, "emote": null, "mention": null}]
	},
	"notice_type": "raid",
	"raid": {
		"user_id": "123",
		"user_login": "raider",
		"user_name": "Raider",
		"viewer_count": 42,
		"profile_image_url": "https://example.com/raider.png"
	}
}`

// recordingListener records every callback it receives.
type recordingListener struct {
	mu    sync.Mutex
	calls []recordedCall
}

type recordedCall struct {
	Method   string
	Metadata Metadata
	Payload  any
}

func (l *recordingListener) record(method string, md Metadata, payload any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, recordedCall{Method: method, Metadata: md, Payload: payload})
}

func (l *recordingListener) Calls() []recordedCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]recordedCall, len(l.calls))
	copy(out, l.calls)
	return out
}

func (l *recordingListener) OnSessionWelcome(md Metadata, p SessionWelcomePayload) {
	l.record("OnSessionWelcome", md, p)
}
func (l *recordingListener) OnSessionReconnect(md Metadata, p SessionReconnectPayload) {
	l.record("OnSessionReconnect", md, p)
}
func (l *recordingListener) OnRevocation(md Metadata, p RevocationPayload) {
	l.record("OnRevocation", md, p)
}
func (l *recordingListener) OnChannelBan(md Metadata, p ChannelBanPayload) {
	l.record("OnChannelBan", md, p)
}
func (l *recordingListener) OnStreamOnline(md Metadata, p StreamOnlinePayload) {
	l.record("OnStreamOnline", md, p)
}
func (l *recordingListener) OnStreamOffline(md Metadata, p StreamOfflinePayload) {
	l.record("OnStreamOffline", md, p)
}
func (l *recordingListener) OnChannelChatNotification(md Metadata, p ChannelChatNotificationPayload) {
	l.record("OnChannelChatNotification", md, p)
}
func (l *recordingListener) OnChannelUpdate(md Metadata, p ChannelUpdatePayload) {
	l.record("OnChannelUpdate", md, p)
}
func (l *recordingListener) OnChannelUpdateV2(md Metadata, p ChannelUpdateV2Payload) {
	l.record("OnChannelUpdateV2", md, p)
}

// withoutKey removes the key at path (dot separated) from a JSON document.
func withoutKey(t *testing.T, doc []byte, path string) []byte {
	t.Helper()
	return mutate(t, doc, path, func(parent map[string]any, key string) { delete(parent, key) })
}

// withValue replaces the value at path in a JSON document.
func withValue(t *testing.T, doc []byte, path string, value any) []byte {
	t.Helper()
	return mutate(t, doc, path, func(parent map[string]any, key string) { parent[key] = value })
}

func mutate(t *testing.T, doc []byte, path string, fn func(parent map[string]any, key string)) []byte {
	t.Helper()
	var root map[string]any
	require.NoError(t, json.Unmarshal(doc, &root))

	parts := strings.Split(path, ".")
	parent := root
	for _, part := range parts[:len(parts)-1] {
		next, ok := parent[part].(map[string]any)
		require.True(t, ok, "path segment %q is not an object", part)
		parent = next
	}
	fn(parent, parts[len(parts)-1])

	out, err := json.Marshal(root)
	require.NoError(t, err)
	return out
}

func payloadOf(t *testing.T, frame []byte) json.RawMessage {
	t.Helper()
	env, err := DecodeEnvelope(frame)
	require.NoError(t, err)
	return env.Payload
}
