// Package api wires up the Gin HTTP router for the search front end:
// a /search endpoint, bang/empty-query redirect handling, and a
// semaphore-guarded global concurrency limit, adapted from the
// teacher's internal/api/handlers.go + middleware.go (gin router,
// Logger/Recovery middleware shape) onto a completely different route
// surface.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Logger is a Gin middleware that logs every request with method, path,
// status code, and latency — the teacher's Logger middleware, rewired
// to zap instead of log.Printf.
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Recovery wraps Gin's default recovery but logs panics structurally,
// the teacher's Recovery middleware rewired to zap.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered", zap.Any("panic", err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}
