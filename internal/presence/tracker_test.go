// Presence tracker tests in Reelo.

package presence

import (
	"Reelo/internal/entity"
	"Reelo/pkg/log"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Global instance of log.Logger to be used during presence testing.
var logger log.Logger = log.New("test")

// Global context
var ctx context.Context = context.Background()

// fakeRepo keeps the viewer sets in memory instead of redis.
type fakeRepo struct {
	mu      sync.Mutex
	viewers map[string]map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{viewers: make(map[string]map[string]bool)}
}

func (r *fakeRepo) Join(ctx context.Context, logger log.Logger, topicKey, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.viewers[topicKey]
	if !ok {
		set = make(map[string]bool)
		r.viewers[topicKey] = set
	}
	set[clientID] = true
	return nil
}

func (r *fakeRepo) Leave(ctx context.Context, logger log.Logger, topicKey, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.viewers[topicKey], clientID)
	return nil
}

func (r *fakeRepo) Count(ctx context.Context, logger log.Logger, topicKey string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.viewers[topicKey])), nil
}

// fakeBroadcaster records every envelope handed to the hub.
type fakeBroadcaster struct {
	mu   sync.Mutex
	envs []entity.Envelope
}

func (b *fakeBroadcaster) Broadcast(env entity.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.envs = append(b.envs, env)
	return nil
}

func (b *fakeBroadcaster) envelopes() []entity.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entity.Envelope, len(b.envs))
	copy(out, b.envs)
	return out
}

// Helper to build the view envelope a client announces its topic with.
func viewEnvelope(t *testing.T, topic entity.Topic) entity.Envelope {
	env, enverr := entity.NewEnvelope(entity.EventView, topic, nil)
	if enverr != nil {
		t.Fatal(enverr)
	}
	return env
}

func TestTrackerJoinOnViewEnvelope(t *testing.T) {
	repo := newFakeRepo()
	tracker := NewTracker(repo, &fakeBroadcaster{}, logger, time.Minute)

	tracker.OnEnvelope("client-1", viewEnvelope(t, entity.Topic{VideoID: 42}))
	tracker.OnEnvelope("client-2", viewEnvelope(t, entity.Topic{VideoID: 42}))

	count, err := repo.Count(ctx, logger, "video:42")
	assert.Nil(t, err)
	assert.Equal(t, int64(2), count)
}

func TestTrackerIgnoresOtherEnvelopes(t *testing.T) {
	repo := newFakeRepo()
	tracker := NewTracker(repo, &fakeBroadcaster{}, logger, time.Minute)

	env, _ := entity.NewEnvelope(entity.EventLike, entity.Topic{VideoID: 42}, nil)
	tracker.OnEnvelope("client-1", env)
	// A view envelope with no topic announces nothing
	noTopic, _ := entity.NewEnvelope(entity.EventView, entity.Topic{}, nil)
	tracker.OnEnvelope("client-1", noTopic)

	count, _ := repo.Count(ctx, logger, "video:42")
	assert.Equal(t, int64(0), count)
}

func TestTrackerRepeatedViewJoinsOnce(t *testing.T) {
	repo := newFakeRepo()
	tracker := NewTracker(repo, &fakeBroadcaster{}, logger, time.Minute)

	for i := 0; i < 3; i++ {
		tracker.OnEnvelope("client-1", viewEnvelope(t, entity.Topic{VideoID: 42}))
	}
	count, _ := repo.Count(ctx, logger, "video:42")
	assert.Equal(t, int64(1), count)
}

func TestTrackerDisconnectLeavesEveryTopic(t *testing.T) {
	repo := newFakeRepo()
	tracker := NewTracker(repo, &fakeBroadcaster{}, logger, time.Minute)

	tracker.OnEnvelope("client-1", viewEnvelope(t, entity.Topic{VideoID: 42}))
	tracker.OnEnvelope("client-1", viewEnvelope(t, entity.Topic{LiveStreamID: 9}))
	tracker.OnDisconnect("client-1")

	videoCount, _ := repo.Count(ctx, logger, "video:42")
	streamCount, _ := repo.Count(ctx, logger, "stream:9")
	assert.Equal(t, int64(0), videoCount)
	assert.Equal(t, int64(0), streamCount)
}

func TestTrackerBroadcastsViewerCounts(t *testing.T) {
	repo := newFakeRepo()
	relay := &fakeBroadcaster{}
	tracker := NewTracker(repo, relay, logger, 30*time.Millisecond)

	tracker.OnEnvelope("client-1", viewEnvelope(t, entity.Topic{VideoID: 42}))
	tracker.OnEnvelope("client-2", viewEnvelope(t, entity.Topic{VideoID: 42}))

	go tracker.Run(ctx)
	defer tracker.Cleanup(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(relay.envelopes()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	envs := relay.envelopes()
	assert.NotEmpty(t, envs)
	assert.Equal(t, entity.EventViewerCount, envs[0].Type)
	assert.Equal(t, int64(42), envs[0].VideoID)

	var payload entity.ViewerCountPayload
	assert.Nil(t, json.Unmarshal(envs[0].Data, &payload))
	assert.Equal(t, int64(2), payload.Count)
}
