package middlewares

import (
	"github.com/gin-gonic/gin"
)

// This middleware is used to add headers to response for Server-Side-Events (SSE) to work properly.
// no-transform is needed to keep proxies from buffering or re-encoding the stream.
func SSEMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		c.Writer.Header().Set("Cache-Control", "no-cache, no-transform")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")
		c.Next()
	}
}
