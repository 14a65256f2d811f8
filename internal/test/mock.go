// Mock methods required in Reelo tests are all here.

package test

import (
	"Reelo/pkg/log"
	"Reelo/pkg/middlewares"
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
)

// Global instance of gin MockRouter to be used during API testing.
var testRouter *gin.Engine

// Singleton to make sure testRouter is initialized only once.
var once sync.Once

func MockRouter() *gin.Engine {
	once.Do(func() {
		// Initializing the gin test server
		ginMode := os.Getenv("GIN_MODE")
		if ginMode == "" {
			ginMode = gin.TestMode
		}
		gin.SetMode(ginMode)
		testRouter = gin.Default()
		testRouter.Use(middlewares.CORSMiddleware("*")) // CORS middleware which allows request from all origin
	})
	return testRouter
}

func MockAuthMiddleware(logger log.Logger) gin.HandlerFunc {
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
