// Authentication of the transport is owned by the hosting layer in Reelo.
// The gateway in front of this server verifies the session and forwards the
// resolved username in the X-Auth-User header.

package middlewares

import (
	"Reelo/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AuthProxyMiddleware picks up the authenticated username forwarded by the gateway.
// Requests reaching a protected route without the header are rejected.
func AuthProxyMiddleware(logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		username := gctx.GetHeader("X-Auth-User")
		if username == "" {
			gctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		// Set Username in request's context
		// This pair will be used further down in the handler chain
		gctx.Set("Username", username)
		gctx.Next()
	}
}
