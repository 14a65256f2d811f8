// Event Envelope tests in Reelo.

package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEnvelopeCarriesTopicAndPayload(t *testing.T) {
	env, enverr := NewEnvelope(EventGift, Topic{VideoID: 42}, GiftPayload{
		Gift:   GiftInfo{ID: "rose", Emoji: "🌹", Name: "Rose", Amount: 10, Rarity: RarityCommon},
		Sender: SenderInfo{Username: "me_Bill..Weber..23"},
	})
	assert.Nil(t, enverr)
	assert.Equal(t, EventGift, env.Type)
	assert.Equal(t, int64(42), env.VideoID)
	assert.NotEmpty(t, env.Timestamp)

	var payload GiftPayload
	assert.Nil(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "rose", payload.Gift.ID)
	assert.Equal(t, "me_Bill..Weber..23", payload.Sender.Username)
}

func TestNewEnvelopeWithoutPayload(t *testing.T) {
	env, enverr := NewEnvelope(EventView, Topic{VideoID: 7}, nil)
	assert.Nil(t, enverr)
	assert.Empty(t, env.Data)
}

func TestDecodeEnvelope(t *testing.T) {
	env, enverr := NewEnvelope(EventComment, Topic{VideoID: 1}, nil)
	assert.Nil(t, enverr)
	raw, mrserr := json.Marshal(env)
	assert.Nil(t, mrserr)

	decoded, decerr := DecodeEnvelope(raw)
	assert.Nil(t, decerr)
	assert.Equal(t, EventComment, decoded.Type)
	assert.Equal(t, int64(1), decoded.VideoID)
}

func TestDecodeEnvelopeUnknownType(t *testing.T) {
	_, decerr := DecodeEnvelope([]byte(`{"type":"teleport","videoId":1,"timestamp":"2026-01-01T00:00:00Z"}`))
	assert.ErrorIs(t, decerr, ErrUnknownEventType)
}

func TestDecodeEnvelopeMalformed(t *testing.T) {
	_, decerr := DecodeEnvelope([]byte(`{"type":"gift",`))
	assert.NotNil(t, decerr)
}

func TestTopicMatches(t *testing.T) {
	video := Topic{VideoID: 5}
	stream := Topic{LiveStreamID: 9}

	videoEnv, _ := NewEnvelope(EventLike, video, nil)
	streamEnv, _ := NewEnvelope(EventLike, stream, nil)

	assert.True(t, video.Matches(videoEnv))
	assert.False(t, video.Matches(streamEnv))
	assert.True(t, stream.Matches(streamEnv))
	assert.False(t, stream.Matches(videoEnv))
	// A zero topic never matches anything
	assert.False(t, Topic{}.Matches(videoEnv))
}

func TestTopicKey(t *testing.T) {
	assert.Equal(t, "video:5", Topic{VideoID: 5}.Key())
	assert.Equal(t, "stream:9", Topic{LiveStreamID: 9}.Key())
}

func TestNormalizeRarity(t *testing.T) {
	assert.Equal(t, RarityLegendary, NormalizeRarity(RarityLegendary))
	assert.Equal(t, RarityCommon, NormalizeRarity(""))
	assert.Equal(t, RarityCommon, NormalizeRarity("mythic"))
}
