package middleware

import (
	"time"

	"youtube-card/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger tags every request with an id and logs it once it is answered.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		requestID := ctx.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx.Header(requestIDHeader, requestID)

		start := time.Now()
		ctx.Next()

		entry := logger.WithRequest(requestID).WithFields(map[string]interface{}{
			"method":   ctx.Request.Method,
			"path":     ctx.Request.URL.Path,
			"status":   ctx.Writer.Status(),
			"latency":  time.Since(start).String(),
			"clientIp": ctx.ClientIP(),
		})
		switch status := ctx.Writer.Status(); {
		case status >= 500:
			entry.Error("Request served")
		case status >= 400:
			entry.Warn("Request served")
		default:
			entry.Debug("Request served")
		}
	}
}
