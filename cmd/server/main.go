// The main file of Quorum.

package main

import (
	"Quorum/internal/config"
	"Quorum/internal/question"
	"Quorum/internal/sse"
	"Quorum/internal/user"
	"Quorum/pkg/cleanup"
	"Quorum/pkg/db"
	"Quorum/pkg/log"
	"Quorum/pkg/validations"
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	// Indicates the current version of Quorum.
	Version = "1.0.0"
	// Address and Port to be used by gin.
	srvaddr, srvport string
)

func main() {
	// Load environment variables from config/dev.env in DEV environment
	if os.Getenv("ENV") == "" || os.Getenv("ENV") == "DEV" {
		config.LoadDevConfig()
	}

	logger := log.New(Version)
	ctx := context.Background()

	logger.Info().Msg(fmt.Sprintf("Welcome to Quorum: v%s", Version))
	logger.Info().Msg(fmt.Sprintf("Quorum Environment: %s", os.Getenv("ENV")))

	// Opening a connection to the DB followed by a PING for connection status check.
	dbConnWrp, dberr := db.NewDbConnection(ctx, logger)
	if dberr != nil {
		logger.Fatal().Err(dberr).Msg("Couldn't setup the DB connection.")
	}
	if dberr := dbConnWrp.CheckDbConnection(ctx, logger); dberr != nil {
		logger.Fatal().Err(dberr).Msg("Redis client couldn't PING the redis-server.")
	}

	// Register all of the global and entity specific custom validations
	validations.RegisterCustomValidations(ctx, logger)
	user.RegisterCustomValidations(ctx, logger)
	question.RegisterCustomValidations(ctx, logger)

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

	// Registry holding every live stream connection of this instance.
	registry := sse.NewRegistry(logger)

	// Running Router() which routes all of the REST API groups and paths.
	Router(server, registry, dbConnWrp, logger)

	// Running the server with defined addr and port.
	srv := &http.Server{
		Addr:    srvaddr + ":" + srvport,
		Handler: server,
	}

	// ListenAndServe is a blocking operation, putting it a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err)
		}
	}()

	// Graceful shutdown of Quorum server triggered due to system interruptions.
	wait := cleanup.GracefulShutdown(ctx, logger, 5*time.Second, map[string]cleanup.Operation{
		"Stream-registry": func(ctx context.Context) error {
			registry.Close()
			return nil
		},
		"Gin": func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
		"Redis-server": func(ctx context.Context) error {
			return dbConnWrp.CloseDbConnection(ctx)
		},
	})
	<-wait
}
