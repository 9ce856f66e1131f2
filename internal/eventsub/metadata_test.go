package eventsub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMetadata(t *testing.T) {
	md, err := DecodeMetadata(json.RawMessage(`{
		"message_id": "befa7b53",
		"message_type": "notification",
		"message_timestamp": "2023-05-20T12:30:55.518375571Z",
		"subscription_type": "channel.ban",
		"subscription_version": "1"
	}`))
	require.NoError(t, err)

	assert.Equal(t, "befa7b53", md.MessageID)
	assert.Equal(t, MessageTypeNotification, md.MessageType)
	assert.Equal(t, "2023-05-20T12:30:55.518375571Z", md.MessageTimestamp)

	typ, version, ok := md.Subscription()
	assert.True(t, ok)
	assert.Equal(t, "channel.ban", typ)
	assert.Equal(t, "1", version)
}

func TestDecodeMetadata_OptionalSubscriptionAbsent(t *testing.T) {
	md, err := DecodeMetadata(json.RawMessage(`{"message_id":"1","message_type":"session_welcome","message_timestamp":"t"}`))
	require.NoError(t, err)

	_, _, ok := md.Subscription()
	assert.False(t, ok)
}

func TestDecodeMetadata_OptionalSubscriptionWrongTypeIsAbsent(t *testing.T) {
	md, err := DecodeMetadata(json.RawMessage(`{
		"message_id": "1",
		"message_type": "notification",
		"message_timestamp": "t",
		"subscription_type": 12,
		"subscription_version": "1"
	}`))
	require.NoError(t, err)

	typ, version, ok := md.Subscription()
	assert.False(t, ok)
	assert.Empty(t, typ)
	assert.Equal(t, "1", version)
}

func TestDecodeMetadata_RequiredKeys(t *testing.T) {
	doc := []byte(`{"message_id":"1","message_type":"session_welcome","message_timestamp":"t"}`)

	for _, key := range []string{"message_id", "message_type", "message_timestamp"} {
		t.Run("missing "+key, func(t *testing.T) {
			_, err := DecodeMetadata(withoutKey(t, doc, key))

			var decErr *DecodeError
			require.ErrorAs(t, err, &decErr)
			assert.Equal(t, MissingKey, decErr.Kind)
			assert.Equal(t, key, decErr.Key)
			assert.Equal(t, "metadata", decErr.Path)
		})

		t.Run("wrong type "+key, func(t *testing.T) {
			_, err := DecodeMetadata(withValue(t, doc, key, 42))

			var decErr *DecodeError
			require.ErrorAs(t, err, &decErr)
			assert.Equal(t, WrongType, decErr.Kind)
			assert.Equal(t, key, decErr.Key)
		})
	}
}

func TestDecodeMetadata_NotAnObject(t *testing.T) {
	for _, raw := range []string{`[]`, `"metadata"`, `null`, `17`} {
		_, err := DecodeMetadata(json.RawMessage(raw))

		var decErr *DecodeError
		require.ErrorAs(t, err, &decErr, raw)
		assert.Equal(t, NotAnObject, decErr.Kind, raw)
	}
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(welcomeFrame))
	require.NoError(t, err)

	assert.Equal(t, "1", env.Metadata.MessageID)
	assert.Equal(t, MessageTypeSessionWelcome, env.Metadata.MessageType)
	assert.True(t, env.HasPayload)
	assert.JSONEq(t, `{"session":{"id":"44f8cbce_c7ee958a"}}`, string(env.Payload))
}

func TestDecodeEnvelope_IgnoresUnknownTopLevelKeys(t *testing.T) {
	frame := withValue(t, []byte(welcomeFrame), "extra", map[string]any{"x": 1})

	env, err := DecodeEnvelope(frame)
	require.NoError(t, err)
	assert.Equal(t, "1", env.Metadata.MessageID)
}

func TestDecodeEnvelope_MissingMetadata(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"payload":{}}`))

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, MissingKey, decErr.Kind)
	assert.Equal(t, "metadata", decErr.Key)
	assert.Empty(t, decErr.Path)
	assert.Contains(t, decErr.Error(), `missing key "metadata" in frame`)
}

func TestDecodeEnvelope_MissingPayloadIsDeferred(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"metadata":{"message_id":"1","message_type":"session_keepalive","message_timestamp":"t"}}`))
	require.NoError(t, err)
	assert.False(t, env.HasPayload)
}

func TestDecodeEnvelope_NotJSON(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`hello`))

	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, NotAnObject, decErr.Kind)
	assert.Error(t, decErr.Unwrap())
}

func TestMetadata_LogAttrs(t *testing.T) {
	env, err := DecodeEnvelope(notificationFrame("stream.offline", "1", streamOfflineEvent))
	require.NoError(t, err)

	assert.Equal(t, []any{
		"message_type", "notification",
		"subscription_type", "stream.offline",
		"subscription_version", "1",
	}, env.Metadata.LogAttrs())

	welcome, err := DecodeEnvelope([]byte(welcomeFrame))
	require.NoError(t, err)
	assert.Equal(t, []any{"message_type", "session_welcome"}, welcome.Metadata.LogAttrs())
}

func TestDecodeErrorKind_String(t *testing.T) {
	assert.Equal(t, "not_an_object", NotAnObject.String())
	assert.Equal(t, "missing_key", MissingKey.String())
	assert.Equal(t, "wrong_type", WrongType.String())
	assert.Equal(t, "unknown", DecodeErrorKind(0).String())
}
