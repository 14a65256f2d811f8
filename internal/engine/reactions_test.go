// Synchronized reaction pipeline tests in Reelo.

package engine

import (
	"Reelo/internal/entity"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Helper to build a sync_reaction envelope the way the hub would relay it.
func reactionEnvelope(t *testing.T, topic entity.Topic, rtype string, participants int) entity.Envelope {
	style := entity.ReactionStyles[entity.ReactionType(rtype)]
	env, enverr := entity.NewEnvelope(entity.EventSyncReact, topic, entity.SyncReactionPayload{
		Type:         rtype,
		Emoji:        style.Emoji,
		Color:        style.Color,
		Participants: participants,
	})
	if enverr != nil {
		t.Fatal(enverr)
	}
	return env
}

func testReactionConfig() ReactionConfig {
	return ReactionConfig{
		Cooldown:   time.Minute,
		DisplayFor: time.Minute,
	}
}

func TestReactionTriggerSendsEnvelope(t *testing.T) {
	feed := newStubFeed()
	topic := entity.Topic{VideoID: 1}
	pipeline := NewReactionPipeline(feed, topic, testReactionConfig(), logger)
	defer pipeline.Stop()

	assert.True(t, pipeline.Trigger(entity.ReactionWave))

	sent := feed.sentEnvelopes()
	assert.Equal(t, 1, len(sent))
	assert.Equal(t, entity.EventSyncReact, sent[0].Type)
	assert.Equal(t, int64(1), sent[0].VideoID)

	var payload entity.SyncReactionPayload
	assert.Nil(t, json.Unmarshal(sent[0].Data, &payload))
	assert.Equal(t, "wave", payload.Type)
	assert.Equal(t, 1, payload.Participants)
	assert.Equal(t, entity.ReactionStyles[entity.ReactionWave].Emoji, payload.Emoji)
}

func TestReactionTriggerCooldown(t *testing.T) {
	feed := newStubFeed()
	topic := entity.Topic{VideoID: 1}
	cfg := testReactionConfig()
	cfg.Cooldown = 60 * time.Millisecond
	pipeline := NewReactionPipeline(feed, topic, cfg, logger)
	defer pipeline.Stop()

	assert.True(t, pipeline.Trigger(entity.ReactionFire))
	// Second trigger inside the window is a silent no-op
	assert.False(t, pipeline.Trigger(entity.ReactionFire))
	assert.True(t, pipeline.CoolingDown())
	assert.Equal(t, 1, len(feed.sentEnvelopes()))

	time.Sleep(150 * time.Millisecond)
	assert.False(t, pipeline.CoolingDown())
	assert.True(t, pipeline.Trigger(entity.ReactionFire))
	assert.Equal(t, 2, len(feed.sentEnvelopes()))
}

func TestReactionTriggerUnknownType(t *testing.T) {
	feed := newStubFeed()
	pipeline := NewReactionPipeline(feed, entity.Topic{VideoID: 1}, testReactionConfig(), logger)
	defer pipeline.Stop()

	assert.False(t, pipeline.Trigger("sparkle"))
	assert.Equal(t, 0, len(feed.sentEnvelopes()))
	// An unknown type never starts the cooldown
	assert.False(t, pipeline.CoolingDown())
}

func TestReactionIntensityScaling(t *testing.T) {
	feed := newStubFeed()
	topic := entity.Topic{VideoID: 1}
	pipeline := NewReactionPipeline(feed, topic, testReactionConfig(), logger)
	defer pipeline.Stop()

	feed.emit(reactionEnvelope(t, topic, "cheer", 0))
	feed.emit(reactionEnvelope(t, topic, "cheer", 25))
	feed.emit(reactionEnvelope(t, topic, "cheer", 100))

	active := pipeline.Active()
	assert.Equal(t, 3, len(active))
	assert.Equal(t, 0.0, active[0].Intensity)
	assert.Equal(t, 2.5, active[1].Intensity)
	// Intensity is clamped no matter how many participants joined
	assert.Equal(t, 5.0, active[2].Intensity)
}

func TestReactionInboundUnknownTypeDropped(t *testing.T) {
	feed := newStubFeed()
	topic := entity.Topic{VideoID: 1}
	pipeline := NewReactionPipeline(feed, topic, testReactionConfig(), logger)
	defer pipeline.Stop()

	feed.emit(reactionEnvelope(t, topic, "sparkle", 3))
	assert.Equal(t, 0, len(pipeline.Active()))
}

func TestReactionExpiry(t *testing.T) {
	feed := newStubFeed()
	topic := entity.Topic{VideoID: 1}
	cfg := testReactionConfig()
	cfg.DisplayFor = 50 * time.Millisecond
	pipeline := NewReactionPipeline(feed, topic, cfg, logger)
	defer pipeline.Stop()

	feed.emit(reactionEnvelope(t, topic, "love", 2))
	assert.Equal(t, 1, len(pipeline.Active()))

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 0, len(pipeline.Active()))
}

func TestReactionTopicFiltering(t *testing.T) {
	feed := newStubFeed()
	pipeline := NewReactionPipeline(feed, entity.Topic{VideoID: 1}, testReactionConfig(), logger)
	defer pipeline.Stop()

	feed.emit(reactionEnvelope(t, entity.Topic{VideoID: 2}, "wave", 1))
	assert.Equal(t, 0, len(pipeline.Active()))
}

func TestReactionViewerCountUpdate(t *testing.T) {
	feed := newStubFeed()
	topic := entity.Topic{VideoID: 1}
	pipeline := NewReactionPipeline(feed, topic, testReactionConfig(), logger)
	defer pipeline.Stop()

	assert.Equal(t, int64(0), pipeline.ViewerCount())

	env, enverr := entity.NewEnvelope(entity.EventViewerCount, topic, entity.ViewerCountPayload{Count: 42})
	assert.Nil(t, enverr)
	feed.emit(env)
	assert.Equal(t, int64(42), pipeline.ViewerCount())
}
