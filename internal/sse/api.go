// Exposes all of the REST APIs related to the realtime question stream in Quorum.

package sse

import (
	"Quorum/internal/entity"
	"Quorum/pkg/log"
	"Quorum/pkg/middlewares"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package sse onto the gin server.
// The stream is public read fan-out by design, neither route is auth-gated.
func APIHandlers(router *gin.Engine, service Service, logger log.Logger) {
	streamGroup := router.Group("/api/questions/stream")
	{
		streamGroup.GET("", middlewares.SSEMiddleware(), streamQuestions(service, logger))
		streamGroup.POST("", publishQuestion(service, logger))
	}
}

// streamQuestions returns the handler keeping a subscriber's transport open indefinitely.
// The connection is registered, greeted with a connected event and then drained until
// either the client goes away or the registry drops the connection.
func streamQuestions(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		conn, err := service.Subscribe(gctx)
		if err != nil {
			gctx.Status(http.StatusInternalServerError)
			return
		}
		defer service.Unsubscribe(conn)

		gctx.Stream(func(w io.Writer) bool {
			select {
			case frame := <-conn.Frames():
				w.Write(frame)
				return true
			case <-conn.Done():
				// Registry dropped us, likely a failed write
				return false
			case <-gctx.Request.Context().Done():
				// Client went away
				return false
			}
		})
	}
}

// publishQuestion returns the handler behind the internal publish trigger.
// The submission flow POSTs the freshly stored question here after its write completed.
func publishQuestion(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		var request entity.SSEPublishRequest
		if binderr := gctx.ShouldBindJSON(&request); binderr != nil || request.Question == nil {
			// Malformed input never propagates past this endpoint
			logger.WithCtx(gctx).Warn().Msg("Malformed publish trigger received on the stream endpoint")
			gctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "question payload is required"})
			return
		}
		service.Publish(gctx, *request.Question)
		gctx.JSON(http.StatusOK, gin.H{"success": true})
	}
}
