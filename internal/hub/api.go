// Exposes the WebSocket upgrade path and hub stats API of Reelo.

package hub

import (
	"Reelo/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Transport authentication is owned by the hosting layer
		return true
	},
}

// Registers the hub handlers onto the gin server.
func APIHandlers(router *gin.Engine, h *Hub, logger log.Logger) {
	router.GET("/ws", wshandler(h, logger))
	router.GET("/api/hub/stats", statshandler(h))
	router.GET("/metrics", gin.WrapH(h.Metrics().Handler()))
}

// wshandler upgrades the request and hands the connection over to the hub.
// No handshake beyond the upgrade is the hub's concern.
func wshandler(h *Hub, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		conn, uperr := upgrader.Upgrade(gctx.Writer, gctx.Request, nil)
		if uperr != nil {
			logger.WithCtx(gctx).Error().Err(uperr).Msg("WebSocket upgrade failed")
			return
		}

		client := NewClient(uuid.New().String(), h, conn, logger)
		h.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}

func statshandler(h *Hub) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		gctx.JSON(http.StatusOK, gin.H{
			"connected_clients": h.ClientCount(),
		})
	}
}
