// Viewer presence tracking of Reelo.
// The tracker observes relayed view envelopes to learn which topic each hub
// client is watching, keeps the per-topic viewer sets in the DB and broadcasts
// a coarse viewer_count envelope per active topic on a fixed tick.

package presence

import (
	"Reelo/internal/entity"
	"Reelo/pkg/log"
	"context"
	"sync"
	"time"
)

// Broadcaster fans an envelope out to every connected hub client.
type Broadcaster interface {
	Broadcast(env entity.Envelope) error
}

// Tracker implements the hub's Observer interface.
type Tracker struct {
	repo     Repository
	relay    Broadcaster
	logger   log.Logger
	interval time.Duration

	mu sync.Mutex
	// clientID -> topicKey -> topic, a client may watch one item per surface
	clientTopics map[string]map[string]entity.Topic

	quit chan struct{}
}

// NewTracker returns a presence tracker broadcasting viewer counts every interval.
func NewTracker(repo Repository, relay Broadcaster, logger log.Logger, interval time.Duration) *Tracker {
	return &Tracker{
		repo:         repo,
		relay:        relay,
		logger:       logger,
		interval:     interval,
		clientTopics: make(map[string]map[string]entity.Topic),
		quit:         make(chan struct{}),
	}
}

// OnEnvelope marks the sending client as a viewer of the envelope's topic.
// Only view envelopes announce presence, everything else passes through.
func (t *Tracker) OnEnvelope(clientID string, env entity.Envelope) {
	if env.Type != entity.EventView {
		return
	}
	topic := env.Topic()
	if topic.VideoID == 0 && topic.LiveStreamID == 0 {
		return
	}

	t.mu.Lock()
	topics, ok := t.clientTopics[clientID]
	if !ok {
		topics = make(map[string]entity.Topic)
		t.clientTopics[clientID] = topics
	}
	if _, joined := topics[topic.Key()]; joined {
		t.mu.Unlock()
		return
	}
	topics[topic.Key()] = topic
	t.mu.Unlock()

	ctx := context.Background()
	if dberr := t.repo.Join(ctx, t.logger, topic.Key(), clientID); dberr != nil {
		// Presence is best-effort, the count just stays coarse
		t.logger.Error().Err(dberr).Msgf("Couldn't join client %s to topic %s", clientID, topic.Key())
	}
}

// OnDisconnect removes the client from every viewer set it had joined.
func (t *Tracker) OnDisconnect(clientID string) {
	t.mu.Lock()
	topics := t.clientTopics[clientID]
	delete(t.clientTopics, clientID)
	t.mu.Unlock()

	ctx := context.Background()
	for key := range topics {
		if dberr := t.repo.Leave(ctx, t.logger, key, clientID); dberr != nil {
			t.logger.Error().Err(dberr).Msgf("Couldn't remove client %s from topic %s", clientID, key)
		}
	}
}

// Run broadcasts viewer_count envelopes per active topic, preferably in a goroutine.
func (t *Tracker) Run(ctx context.Context) {
	t.logger.WithCtx(ctx).Info().Msg("Launching presence Tracker")
	ticker := time.NewTicker(t.interval)
	for {
		select {
		case <-ticker.C:
			t.broadcastCounts(ctx)
		case <-t.quit:
			ticker.Stop()
			t.logger.WithCtx(ctx).Info().Msg("Successfully stopped presence Tracker")
			return
		}
	}
}

func (t *Tracker) broadcastCounts(ctx context.Context) {
	// Snapshot the active topics before touching the DB
	t.mu.Lock()
	active := make(map[string]entity.Topic)
	for _, topics := range t.clientTopics {
		for key, topic := range topics {
			active[key] = topic
		}
	}
	t.mu.Unlock()

	for key, topic := range active {
		count, dberr := t.repo.Count(ctx, t.logger, key)
		if dberr != nil {
			continue
		}
		env, enverr := entity.NewEnvelope(entity.EventViewerCount, topic, entity.ViewerCountPayload{Count: count})
		if enverr != nil {
			t.logger.Error().Err(enverr).Msg("Couldn't construct viewer_count envelope")
			continue
		}
		if berr := t.relay.Broadcast(env); berr != nil {
			t.logger.Error().Err(berr).Msgf("Couldn't broadcast viewer_count for topic %s", key)
		}
	}
}

// Cleanup stops the tracker loop before server shutdown.
func (t *Tracker) Cleanup(ctx context.Context) error {
	close(t.quit)
	return nil
}
