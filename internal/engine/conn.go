// Client connection lifecycle of the Reelo reaction engine.
// One Conn per client process, shared read-only by every pipeline for every
// topic. Reconnects transparently on drop with capped exponential backoff.

package engine

import (
	"Reelo/internal/entity"
	"Reelo/pkg/log"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Feed is the publish/subscribe surface the pipelines consume.
// Satisfied by Conn, kept as an interface for pipeline tests.
type Feed interface {
	// Subscribe registers a listener for every inbound envelope and returns
	// its cancellation handle. Listeners filter by type and topic themselves.
	Subscribe(fn func(entity.Envelope)) (cancel func())
	// Send transmits an envelope, silently dropped while disconnected.
	Send(env entity.Envelope)
}

// ConnConfig holds the dial and reconnect policy of a Conn.
type ConnConfig struct {
	// URL of the hub's upgrade path, e.g. ws://host/ws
	URL string
	// BaseBackoff doubles per attempt: base << attempt
	BaseBackoff time.Duration
	// MaxAttempts caps reconnection, afterwards the Conn stays down until remounted
	MaxAttempts int
}

// DefaultConnConfig mirrors the production reconnect policy.
func DefaultConnConfig(url string) ConnConfig {
	return ConnConfig{
		URL:         url,
		BaseBackoff: 1 * time.Second,
		MaxAttempts: 5,
	}
}

// Conn maintains exactly one logical connection to the event hub.
// Explicitly constructed and owned, created at application startup and
// closed at exit, injected into every pipeline that needs it.
type Conn struct {
	cfg    ConnConfig
	logger log.Logger

	mu           sync.Mutex
	ws           *websocket.Conn
	listeners    map[int]func(entity.Envelope)
	nextListener int
	attempts     int
	reconnect    *time.Timer
	closed       bool

	// wmu serializes writes, the websocket allows a single concurrent writer
	wmu sync.Mutex
}

// NewConn returns a disconnected Conn, call Connect to bring it up.
func NewConn(cfg ConnConfig, logger log.Logger) *Conn {
	return &Conn{
		cfg:       cfg,
		logger:    logger,
		listeners: make(map[int]func(entity.Envelope)),
	}
}

// Connect dials the hub asynchronously.
func (c *Conn) Connect() {
	go c.dial()
}

func (c *Conn) dial() {
	c.mu.Lock()
	if c.closed || c.ws != nil {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	ws, _, derr := websocket.DefaultDialer.Dial(c.cfg.URL, nil)
	if derr != nil {
		c.logger.Debug().Err(derr).Msg("Couldn't connect to the event hub")
		c.scheduleReconnect()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		ws.Close()
		return
	}
	c.ws = ws
	c.attempts = 0
	c.mu.Unlock()

	c.logger.Debug().Msg("Connected to the event hub")
	go c.readLoop(ws)
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	for {
		_, raw, rerr := ws.ReadMessage()
		if rerr != nil {
			ws.Close()
			c.mu.Lock()
			if c.ws == ws {
				c.ws = nil
			}
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				c.logger.Debug().Err(rerr).Msg("Event hub connection dropped")
				c.scheduleReconnect()
			}
			return
		}

		env, derr := entity.DecodeEnvelope(raw)
		if derr != nil {
			// Malformed envelopes are dropped with a log, never propagated to UI
			c.logger.Debug().Err(derr).Msg("Dropping malformed envelope from the event hub")
			continue
		}
		c.deliver(env)
	}
}

// deliver fans one envelope out to every registered listener.
func (c *Conn) deliver(env entity.Envelope) {
	c.mu.Lock()
	fns := make([]func(entity.Envelope), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(env)
	}
}

func (c *Conn) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.attempts >= c.cfg.MaxAttempts {
		// Reconnection ceases until the owning component brings up a fresh Conn
		c.logger.Warn().Msgf("Giving up on the event hub after %d attempts", c.attempts)
		return
	}
	c.attempts++
	delay := c.cfg.BaseBackoff << c.attempts
	c.reconnect = time.AfterFunc(delay, c.dial)
}

// Subscribe registers a listener against the shared connection.
// Every engine must release its handle on teardown, leaked listeners fire
// against unmounted state.
func (c *Conn) Subscribe(fn func(entity.Envelope)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Send transmits an envelope to the hub.
// Sends while disconnected are dropped, there is no outbound queue.
func (c *Conn) Send(env entity.Envelope) {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		c.logger.Debug().Msgf("Dropping %s send while disconnected", env.Type)
		return
	}

	data, merr := json.Marshal(env)
	if merr != nil {
		c.logger.Error().Err(merr).Msg("Couldn't marshal outbound envelope")
		return
	}

	c.wmu.Lock()
	werr := ws.WriteMessage(websocket.TextMessage, data)
	c.wmu.Unlock()
	if werr != nil {
		// Fire-and-forget, the event is lost and the read loop handles the drop
		c.logger.Debug().Err(werr).Msgf("Dropped %s send on broken connection", env.Type)
	}
}

// Close tears the connection down and stops any pending reconnect.
// No pipeline may call this, the Conn is owned by the process.
func (c *Conn) Close() {
	c.mu.Lock()
	c.closed = true
	if c.reconnect != nil {
		c.reconnect.Stop()
	}
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()
	if ws != nil {
		ws.Close()
	}
}
