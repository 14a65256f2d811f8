// Client connection wrapper of the Reelo event hub.
// One Client per live WebSocket connection, owned by the hub for its lifetime.

package hub

import (
	"Reelo/pkg/log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period, must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 8192
	// Outbound buffer size per client, the transport's own backpressure applies beyond this.
	sendBufferSize = 256
)

// Client is a live bidirectional transport endpoint between one viewer and the hub.
type Client struct {
	ID     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger log.Logger
}

// NewClient wraps an upgraded WebSocket connection for hub registration.
func NewClient(id string, h *Hub, conn *websocket.Conn, logger log.Logger) *Client {
	return &Client{
		ID:     id,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		logger: logger,
	}
}

// ReadPump forwards inbound messages from this connection to the hub relay.
// Runs in its own goroutine, one per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, rerr := c.conn.ReadMessage()
		if rerr != nil {
			if websocket.IsUnexpectedCloseError(rerr, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug().Err(rerr).Msgf("Unexpected close on client %s", c.ID)
			}
			break
		}
		c.hub.relay <- inbound{sender: c, raw: message}
	}
}

// WritePump drains this connection's send buffer onto the wire and keeps the
// connection alive with periodic pings. Runs in its own goroutine, one per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if werr := c.conn.WriteMessage(websocket.TextMessage, message); werr != nil {
				// A failed send to one connection never aborts the hub's fan-out,
				// the read pump will notice the broken transport and unregister.
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if werr := c.conn.WriteMessage(websocket.PingMessage, nil); werr != nil {
				return
			}
		}
	}
}
