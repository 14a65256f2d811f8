// The main file of Reelo.

package main

import (
	"Reelo/internal/config"
	"Reelo/internal/hub"
	"Reelo/internal/presence"
	"Reelo/pkg/cleanup"
	"Reelo/pkg/db"
	"Reelo/pkg/log"
	"Reelo/pkg/validations"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	// Indicates the current version of Reelo.
	Version = "1.0.0"
	// Address and Port to be used by gin.
	srvaddr, srvport string
)

func main() {
	if len(os.Getenv("ENV")) == 0 {
		// Fallback to the development env file
		config.LoadDevConfig()
	}

	logger := log.New(Version)
	logger.Info().Msg(fmt.Sprintf("Welcome to Reelo: v%s", Version))
	logger.Info().Msg(fmt.Sprintf("Reelo Environment: %s", os.Getenv("ENV")))

	ctx := context.Background()

	// Initializing and verifying the DB connection.
	dbConnWrp := db.NewDbConnection(ctx, logger)
	dbConnWrp.CheckDbConnection(ctx, logger)

	// Registering custom validation tags used by the entities.
	validations.RegisterCustomValidations()

	// Fetching addr and port depending upon env flag.
	srvaddr, srvport = os.Getenv("SRV_ADDR"), os.Getenv("SRV_PORT")
	// This is the preferred mode used by gin server in DEV environment.
	if os.Getenv("ENV") == "DEV" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initializing the gin server.
	server := gin.New()

	// Forcing gin to use custom Logger instead of the default one.
	server.Use(log.LoggerGinExtension(logger))
	server.Use(gin.Recovery())

	// The event hub is the process-wide broadcast relay of Reelo.
	eventHub := hub.New(logger)
	go eventHub.Run()

	// Presence tracking piggybacks on the hub's relayed view envelopes.
	tracker := presence.NewTracker(presence.NewRepository(dbConnWrp), eventHub, logger, 5*time.Second)
	eventHub.SetObserver(tracker)
	go tracker.Run(ctx)

	// Running Router() which routes all of the REST API groups and paths.
	Router(server, dbConnWrp, eventHub, logger)

	// Running the server with defined addr and port.
	srv := &http.Server{
		Addr:    srvaddr + ":" + srvport,
		Handler: server,
	}

	// ListenAndServe is a blocking operation, putting it a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Error in ListenAndServe()")
		}
	}()

	// Graceful shutdown of Reelo server triggered due to system interruptions.
	wait := cleanup.GracefulShutdown(ctx, logger, 5*time.Second, map[string]cleanup.Operation{
		"Presence-tracker": func(ctx context.Context) error {
			return tracker.Cleanup(ctx)
		},
		"Event-hub": func(ctx context.Context) error {
			return eventHub.Close()
		},
		"Redis-server": func(ctx context.Context) error {
			return dbConnWrp.CloseDbConnection(ctx)
		},
		"Gin": func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	<-wait
}
