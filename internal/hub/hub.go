// The event hub of Reelo, a process-wide broadcast relay.
// The hub owns no domain knowledge of event semantics. It accepts connections,
// relays inbound envelopes to every other open connection and performs
// server-originated broadcasts for the persist-then-broadcast paths.
// Topic filtering happens client-side, all topics go to all connections.

package hub

import (
	"Reelo/internal/entity"
	"Reelo/pkg/log"
	"encoding/json"
	"sync/atomic"
)

// Observer gets notified of valid relayed envelopes and connection closes.
// Used by the presence tracker, the hub itself stays topic-agnostic.
type Observer interface {
	OnEnvelope(clientID string, env entity.Envelope)
	OnDisconnect(clientID string)
}

// inbound pairs a raw client message with its originating connection.
type inbound struct {
	sender *Client
	raw    []byte
}

// Hub relays envelopes between all connected clients.
type Hub struct {
	logger     log.Logger
	metrics    *Metrics
	observer   Observer
	register   chan *Client
	unregister chan *Client
	relay      chan inbound
	broadcast  chan []byte
	clients    map[string]*Client
	count      atomic.Int64
	quit       chan struct{}
}

// New returns a hub ready to Run.
func New(logger log.Logger) *Hub {
	return &Hub{
		logger:     logger,
		metrics:    newMetrics(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		relay:      make(chan inbound, 256),
		broadcast:  make(chan []byte, 256),
		clients:    make(map[string]*Client),
		quit:       make(chan struct{}),
	}
}

// SetObserver wires an observer into the hub, must be called before Run.
func (h *Hub) SetObserver(o Observer) {
	h.observer = o
}

// Metrics exposes the hub's Prometheus collectors for mounting on the router.
func (h *Hub) Metrics() *Metrics {
	return h.metrics
}

// Run drives the hub's relay loop, preferably launched in a goroutine from main.
// All mutation of the client set happens on this goroutine, no locking needed.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client.ID] = client
			h.count.Add(1)
			h.metrics.connectedClients.Inc()
			h.logger.Debug().Msgf("Client %s connected to the event hub", client.ID)

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.relay:
			env, derr := entity.DecodeEnvelope(msg.raw)
			if derr != nil {
				// Malformed envelopes are dropped silently, fire-and-forget semantics
				h.metrics.envelopesDropped.Inc()
				h.logger.Debug().Err(derr).Msgf("Dropping malformed envelope from client %s", msg.sender.ID)
				continue
			}
			h.metrics.envelopesRelayed.Inc()
			if h.observer != nil {
				h.observer.OnEnvelope(msg.sender.ID, env)
			}
			// Forward the raw message verbatim to every connection except the sender
			for id, client := range h.clients {
				if id == msg.sender.ID {
					continue
				}
				h.send(client, msg.raw)
			}

		case data := <-h.broadcast:
			h.metrics.broadcastsTotal.Inc()
			for _, client := range h.clients {
				h.send(client, data)
			}

		case <-h.quit:
			for _, client := range h.clients {
				close(client.send)
			}
			h.clients = make(map[string]*Client)
			return
		}
	}
}

// send delivers data to one recipient without blocking the relay loop.
// A recipient whose buffer is full gets disconnected, the hub holds no queues.
func (h *Hub) send(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.metrics.slowClientDrops.Inc()
		h.logger.Warn().Msgf("Client %s too slow, dropping connection", client.ID)
		h.removeClient(client)
	}
}

func (h *Hub) removeClient(client *Client) {
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.send)
	h.count.Add(-1)
	h.metrics.connectedClients.Dec()
	if h.observer != nil {
		h.observer.OnDisconnect(client.ID)
	}
	h.logger.Debug().Msgf("Client %s disconnected from the event hub", client.ID)
}

// Register adds a new connection to the hub's live set.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a connection from the hub's live set.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast marshals an envelope and fans it out to all connected clients.
// Used by the server-side persist-then-broadcast paths (gifts, likes, comments).
func (h *Hub) Broadcast(env entity.Envelope) error {
	data, merr := json.Marshal(env)
	if merr != nil {
		return merr
	}
	select {
	case h.broadcast <- data:
	case <-h.quit:
	}
	return nil
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int64 {
	return h.count.Load()
}

// Close shuts the relay loop down and drops every connection.
func (h *Hub) Close() error {
	close(h.quit)
	return nil
}
