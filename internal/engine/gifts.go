// Gift animation pipeline of the Reelo reaction engine, one instance per
// viewed content item. Transforms the inbound gift envelope stream into a
// bounded, paced set of on-screen gift slots with combo detection and
// rarity-triggered gift rain.

package engine

import (
	"Reelo/internal/entity"
	"Reelo/pkg/log"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GiftConfig holds the pacing knobs of the pipeline.
// Defaults match production, tests shorten them.
type GiftConfig struct {
	// MaxActive caps simultaneous on-screen gifts
	MaxActive int
	// DisplayFor is the scheduled lifetime of an active gift
	DisplayFor time.Duration
	// MaxAge is the sweep eviction threshold, the safety net past DisplayFor
	MaxAge time.Duration
	// SweepEvery is the sweep tick
	SweepEvery time.Duration
	// ComboWindow resets the combo counter when no same-type gift arrives in time
	ComboWindow time.Duration
	// ComboRainAt triggers gift rain once the counter reaches this value
	ComboRainAt int
	// RainSize is the number of synthetic entries per rain
	RainSize int
	// RainDelay defers queueing the rain entries
	RainDelay time.Duration
	// RainHold keeps the rain visual flag up
	RainHold time.Duration
	// RainStagger spaces the conceptual arrival of rain entries
	RainStagger time.Duration
}

// DefaultGiftConfig returns the production pacing.
func DefaultGiftConfig() GiftConfig {
	return GiftConfig{
		MaxActive:   8,
		DisplayFor:  4000 * time.Millisecond,
		MaxAge:      5000 * time.Millisecond,
		SweepEvery:  1000 * time.Millisecond,
		ComboWindow: 3000 * time.Millisecond,
		ComboRainAt: 5,
		RainSize:    15,
		RainDelay:   500 * time.Millisecond,
		RainHold:    3000 * time.Millisecond,
		RainStagger: 100 * time.Millisecond,
	}
}

// RainSenderName attributes rain-generated entries to a synthetic sender.
const RainSenderName = "Gift Rain"

// LiveGift is a client-local gift instance derived from a gift envelope.
// The instance id is generated here, not the persisted gift's id.
type LiveGift struct {
	ID      string
	Gift    entity.GiftInfo
	Sender  entity.SenderInfo
	X, Y    float64
	Created time.Time
}

// GiftPipeline drives the pending queue, the bounded active set and the
// combo state for one topic. Exclusively owns every LiveGift it creates.
type GiftPipeline struct {
	topic  entity.Topic
	cfg    GiftConfig
	logger log.Logger
	feed   Feed
	timers *timerSet
	cancel func()
	rng    *rand.Rand

	mu               sync.Mutex
	pending          []LiveGift
	active           []LiveGift
	combo            int
	lastGiftType     string
	cancelComboReset func()
	rainActive       bool
}

// NewGiftPipeline subscribes a pipeline for one topic onto the shared connection.
func NewGiftPipeline(feed Feed, topic entity.Topic, cfg GiftConfig, logger log.Logger) *GiftPipeline {
	p := &GiftPipeline{
		topic:  topic,
		cfg:    cfg,
		logger: logger,
		feed:   feed,
		timers: newTimerSet(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	p.cancel = feed.Subscribe(p.onEnvelope)
	// Safety net against lost removal timers, the active set can never grow unbounded
	p.timers.Every(cfg.SweepEvery, p.sweep)
	return p
}

func (p *GiftPipeline) onEnvelope(env entity.Envelope) {
	if env.Type != entity.EventGift || !p.topic.Matches(env) {
		return
	}
	var payload entity.GiftPayload
	if jerr := json.Unmarshal(env.Data, &payload); jerr != nil {
		p.logger.Debug().Err(jerr).Msg("Dropping malformed gift payload")
		return
	}
	p.handleGift(payload)
}

func (p *GiftPipeline) handleGift(payload entity.GiftPayload) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Missing or malformed rarity degrades to common, never a crash
	payload.Gift.Rarity = entity.NormalizeRarity(payload.Gift.Rarity)

	gift := LiveGift{
		ID:     uuid.New().String(),
		Gift:   payload.Gift,
		Sender: payload.Sender,
		// Randomized position keeps gifts off the screen edges
		X:       10 + p.rng.Float64()*80,
		Y:       20 + p.rng.Float64()*60,
		Created: time.Now(),
	}

	// Combo: same-type streak within the reset window
	if payload.Gift.ID == p.lastGiftType && p.lastGiftType != "" {
		p.combo++
	} else {
		p.combo = 1
		p.lastGiftType = payload.Gift.ID
	}
	if p.cancelComboReset != nil {
		p.cancelComboReset()
	}
	p.cancelComboReset = p.timers.After(p.cfg.ComboWindow, func() {
		p.mu.Lock()
		p.combo = 0
		p.lastGiftType = ""
		p.mu.Unlock()
	})

	// Concurrent rains are allowed to overlap, no deduplication
	if payload.Gift.Rarity == entity.RarityLegendary || p.combo >= p.cfg.ComboRainAt {
		p.triggerRainLocked(payload.Gift)
	}

	p.pending = append(p.pending, gift)
	p.drainLocked()
}

// triggerRainLocked queues RainSize synthetic entries of the triggering gift.
// Rain entries go through the same queue and concurrency cap as organic
// arrivals, but are combo-inert, they never feed the counter back.
func (p *GiftPipeline) triggerRainLocked(gift entity.GiftInfo) {
	p.rainActive = true
	p.timers.After(p.cfg.RainHold, func() {
		p.mu.Lock()
		p.rainActive = false
		p.mu.Unlock()
	})

	p.timers.After(p.cfg.RainDelay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		now := time.Now()
		for i := 0; i < p.cfg.RainSize; i++ {
			p.pending = append(p.pending, LiveGift{
				ID:     uuid.New().String(),
				Gift:   gift,
				Sender: entity.SenderInfo{Username: RainSenderName},
				// Full-width drop starting above the visible area
				X:       p.rng.Float64() * 100,
				Y:       -10,
				Created: now.Add(time.Duration(i) * p.cfg.RainStagger),
			})
		}
		p.drainLocked()
	})
}

// drainLocked promotes queued gifts into free active slots.
// Re-evaluated whenever the queue or the active set changes, smoothing
// bursts into a visible sequence instead of an overwhelming flash.
func (p *GiftPipeline) drainLocked() {
	for len(p.pending) > 0 && len(p.active) < p.cfg.MaxActive {
		gift := p.pending[0]
		p.pending = p.pending[1:]
		p.active = append(p.active, gift)

		id := gift.ID
		p.timers.After(p.cfg.DisplayFor, func() {
			p.removeActive(id)
		})
	}
}

func (p *GiftPipeline) removeActive(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.active[:0]
	for _, gift := range p.active {
		if gift.ID != id {
			kept = append(kept, gift)
		}
	}
	if len(kept) != len(p.active) {
		p.active = kept
		p.drainLocked()
	}
}

// sweep evicts anything older than MaxAge in case a scheduled removal was lost.
func (p *GiftPipeline) sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	kept := p.active[:0]
	for _, gift := range p.active {
		if now.Sub(gift.Created) <= p.cfg.MaxAge {
			kept = append(kept, gift)
		}
	}
	if len(kept) != len(p.active) {
		p.active = kept
		p.drainLocked()
	}
}

// Active returns a snapshot of the on-screen gifts.
func (p *GiftPipeline) Active() []LiveGift {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]LiveGift, len(p.active))
	copy(out, p.active)
	return out
}

// QueueLen returns the number of gifts waiting for an active slot.
func (p *GiftPipeline) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Combo returns the current same-type streak counter.
func (p *GiftPipeline) Combo() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.combo
}

// RainActive reports whether the rain visual flag is up.
func (p *GiftPipeline) RainActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rainActive
}

// Stop deregisters the pipeline's listener and cancels every pending timer.
// Must be called when the viewer scrolls away from the content item.
func (p *GiftPipeline) Stop() {
	p.cancel()
	p.timers.StopAll()
}
