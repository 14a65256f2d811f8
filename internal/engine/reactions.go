// Synchronized reaction pipeline of the Reelo reaction engine, one instance
// per viewed content item. Unlike gifts there is no queue and no concurrency
// cap, the per-viewer cooldown keeps the broadcast frequency self-limiting.

package engine

import (
	"Reelo/internal/entity"
	"Reelo/pkg/log"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ReactionConfig holds the pacing knobs of the pipeline.
type ReactionConfig struct {
	// Cooldown guards how often the local viewer may trigger a reaction
	Cooldown time.Duration
	// DisplayFor is the fixed lifetime of a received reaction
	DisplayFor time.Duration
}

// DefaultReactionConfig returns the production pacing.
func DefaultReactionConfig() ReactionConfig {
	return ReactionConfig{
		Cooldown:   2000 * time.Millisecond,
		DisplayFor: 4000 * time.Millisecond,
	}
}

// maxIntensity clamps the derived intensity regardless of participant count.
const maxIntensity = 5

// SyncReaction is a client-local reaction instance derived from a
// sync_reaction envelope. Participants is aggregated server-side, the
// client treats the received value as authoritative.
type SyncReaction struct {
	ID           string
	Type         entity.ReactionType
	Emoji        string
	Color        string
	Participants int
	Intensity    float64
	Created      time.Time
}

// ReactionPipeline drives reaction display and the local trigger cooldown for one topic.
type ReactionPipeline struct {
	topic  entity.Topic
	cfg    ReactionConfig
	logger log.Logger
	feed   Feed
	timers *timerSet
	cancel func()

	mu          sync.Mutex
	active      []SyncReaction
	coolingDown bool
	viewerCount int64
}

// NewReactionPipeline subscribes a pipeline for one topic onto the shared connection.
func NewReactionPipeline(feed Feed, topic entity.Topic, cfg ReactionConfig, logger log.Logger) *ReactionPipeline {
	p := &ReactionPipeline{
		topic:  topic,
		cfg:    cfg,
		logger: logger,
		feed:   feed,
		timers: newTimerSet(),
	}
	p.cancel = feed.Subscribe(p.onEnvelope)
	return p
}

// Trigger broadcasts a reaction on behalf of the local viewer.
// A no-op while the cooldown is up, reports whether an envelope was sent.
func (p *ReactionPipeline) Trigger(rtype entity.ReactionType) bool {
	style, known := entity.ReactionStyles[rtype]
	if !known {
		p.logger.Debug().Msgf("Ignoring trigger of unknown reaction type %s", rtype)
		return false
	}

	p.mu.Lock()
	if p.coolingDown {
		p.mu.Unlock()
		return false
	}
	p.coolingDown = true
	p.mu.Unlock()

	// The collaborator aggregates concurrent triggers of the same type
	// into one broadcast with a combined participant count
	payload := entity.SyncReactionPayload{
		Type:         string(rtype),
		Emoji:        style.Emoji,
		Color:        style.Color,
		Participants: 1,
	}
	env, enverr := entity.NewEnvelope(entity.EventSyncReact, p.topic, payload)
	if enverr != nil {
		p.logger.Error().Err(enverr).Msg("Couldn't construct sync_reaction envelope")
	} else {
		p.feed.Send(env)
	}

	p.timers.After(p.cfg.Cooldown, func() {
		p.mu.Lock()
		p.coolingDown = false
		p.mu.Unlock()
	})
	return true
}

func (p *ReactionPipeline) onEnvelope(env entity.Envelope) {
	if !p.topic.Matches(env) {
		return
	}
	switch env.Type {
	case entity.EventSyncReact:
		p.handleReaction(env)
	case entity.EventViewerCount:
		var payload entity.ViewerCountPayload
		if jerr := json.Unmarshal(env.Data, &payload); jerr != nil {
			p.logger.Debug().Err(jerr).Msg("Dropping malformed viewer_count payload")
			return
		}
		p.mu.Lock()
		p.viewerCount = payload.Count
		p.mu.Unlock()
	}
}

func (p *ReactionPipeline) handleReaction(env entity.Envelope) {
	var payload entity.SyncReactionPayload
	if jerr := json.Unmarshal(env.Data, &payload); jerr != nil {
		p.logger.Debug().Err(jerr).Msg("Dropping malformed sync_reaction payload")
		return
	}
	rtype := entity.ReactionType(payload.Type)
	if _, known := entity.ReactionStyles[rtype]; !known {
		// No fallback for unknown reaction types, treat as a drop
		p.logger.Debug().Msgf("Dropping unknown reaction type %s", payload.Type)
		return
	}

	intensity := float64(payload.Participants) / 10
	if intensity > maxIntensity {
		intensity = maxIntensity
	}
	reaction := SyncReaction{
		ID:           uuid.New().String(),
		Type:         rtype,
		Emoji:        payload.Emoji,
		Color:        payload.Color,
		Participants: payload.Participants,
		Intensity:    intensity,
		Created:      time.Now(),
	}

	p.mu.Lock()
	p.active = append(p.active, reaction)
	p.mu.Unlock()

	id := reaction.ID
	p.timers.After(p.cfg.DisplayFor, func() {
		p.mu.Lock()
		kept := p.active[:0]
		for _, r := range p.active {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		p.active = kept
		p.mu.Unlock()
	})
}

// Active returns a snapshot of the on-screen reactions.
func (p *ReactionPipeline) Active() []SyncReaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SyncReaction, len(p.active))
	copy(out, p.active)
	return out
}

// ViewerCount returns the latest broadcast viewer count for the topic.
func (p *ReactionPipeline) ViewerCount() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewerCount
}

// CoolingDown reports whether the local trigger cooldown is up.
func (p *ReactionPipeline) CoolingDown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.coolingDown
}

// Stop deregisters the pipeline's listener and cancels every pending timer.
func (p *ReactionPipeline) Stop() {
	p.cancel()
	p.timers.StopAll()
}
