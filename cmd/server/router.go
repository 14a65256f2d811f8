// List of all REST API endpoints being used by Reelo can be found here.

package main

import (
	"Reelo/internal/gift"
	"Reelo/internal/hub"
	"Reelo/internal/video"
	"Reelo/pkg/db"
	"Reelo/pkg/log"
	"Reelo/pkg/middlewares"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Router(router *gin.Engine, dbConnWrp *db.RedisDB, eventHub *hub.Hub, logger log.Logger) {
	// Global middlewares
	router.Use(middlewares.CORSMiddleware("*"))
	router.Use(middlewares.UniqueIDMiddleware(logger))
	router.Use(middlewares.CorrelationMiddleware(logger))

	// This is the route to default path
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to Reelo!")
	})

	// Authenticated routes pick the username up from the gateway header
	authWithAcc := middlewares.AuthProxyMiddleware(logger)

	// Repositories needed by the APIs and services to work
	videoRepo := video.NewRepository(dbConnWrp)
	giftRepo := gift.NewRepository(dbConnWrp)

	// Register internal package handlers
	hub.APIHandlers(router, eventHub, logger)
	video.APIHandlers(router, video.NewService(videoRepo, eventHub, logger), authWithAcc, logger)
	gift.APIHandlers(router, gift.NewService(giftRepo, videoRepo, eventHub, logger), authWithAcc, logger)
}
