// List of all REST API endpoints being used by Quorum can be found here.

package main

import (
	"Quorum/internal/auth"
	"Quorum/internal/question"
	"Quorum/internal/sse"
	"Quorum/internal/storage"
	"Quorum/internal/user"
	"Quorum/pkg/db"
	"Quorum/pkg/globalcontext"
	"Quorum/pkg/log"
	"Quorum/pkg/middlewares"
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

func Router(router *gin.Engine, registry *sse.Registry, dbConnWrp *db.RedisDB, logger log.Logger) {
	ctx := context.Background()

	// Attach the ambient middlewares used by every route
	router.Use(middlewares.CORSMiddleware(os.Getenv("FRONTEND_URL")))
	router.Use(globalcontext.UniqueIDMiddleware(logger))
	router.Use(middlewares.CorrelationMiddleware(logger))

	// This is the route to default path
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to Quorum!")
	})

	// Repositories
	userRepo := user.NewRepository(dbConnWrp)
	authRepo := auth.NewRepository(dbConnWrp)
	questionRepo := question.NewRepository(dbConnWrp)
	sseRepo := sse.NewRepository(dbConnWrp)

	// Leftover gauge values from a crashed instance mean nothing anymore
	sseRepo.ResetClients(ctx, logger)

	// Services
	sseService := sse.NewService(registry, sseRepo, logger)
	// The publish trigger is a loopback call onto this instance's own stream endpoint
	publisher := sse.NewHTTPPublisher("http://"+os.Getenv("SRV_ADDR")+":"+os.Getenv("SRV_PORT")+"/api/questions/stream", logger)
	questionService := question.NewService(questionRepo, userRepo, sseService, publisher, logger)
	userService := user.NewService(userRepo, logger)
	authService := auth.NewService(os.Getenv("ACCESS_SECRET"), os.Getenv("REFRESH_SECRET"), userRepo, authRepo, logger)

	// Middlewares which guard authenticated and admin-only route groups
	authWithAcc := auth.AuthMiddleware(logger, authRepo, "access_token", os.Getenv("ACCESS_SECRET"))
	authWithRef := auth.AuthMiddleware(logger, authRepo, "refresh_token", os.Getenv("REFRESH_SECRET"))
	validateAdmin := auth.AdminMiddleware(logger, userRepo)

	// Register handlers of every internal package onto the gin server
	auth.APIHandlers(router, authService, authWithAcc, authWithRef, logger)
	user.APIHandlers(router, userService, authWithAcc, validateAdmin, logger)
	question.APIHandlers(router, questionService, authWithAcc, validateAdmin, logger)
	sse.APIHandlers(router, sseService, logger)

	// tusd handler which takes care of user avatar uploads
	storageHandler := storage.GetTusdStorageHandler(userRepo, logger)
	avatarStorage := storage.AvatarStorageMiddleware(logger, userRepo)
	storage.APIHandlers(router, storageHandler, authWithAcc, avatarStorage, logger)
}
