package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"youtube-card/domain/dto"
	"youtube-card/domain/model"
	"youtube-card/domain/repository"
	"youtube-card/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

const abuseLimitMessage = "Tu as dépassé la limite de %d demandes sur %s, réessaie dans quelques instants."

// RateLimit admits each request against class, keyed by client IP. A disabled limiter lets everything through.
func RateLimit(limiter repository.IRateLimiter, class repository.QuotaClass, disabled bool) gin.HandlerFunc {
	if disabled || limiter == nil {
		logger.GetLogger().WithField("class", class).Info("Rate limiting disabled")
		return func(ctx *gin.Context) { ctx.Next() }
	}

	return func(ctx *gin.Context) {
		res, err := limiter.Limit(ctx.Request.Context(), ctx.ClientIP(), class)
		if err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"error": err,
				"class": class,
				"ip":    ctx.ClientIP(),
			}).Error("Rate limiter unavailable")
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Service temporairement indisponible"})
			return
		}

		ctx.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		ctx.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Reset.IsZero() {
			ctx.Header("X-RateLimit-Reset", strconv.FormatInt(res.Reset.Unix(), 10))
		}

		if !res.Allowed {
			if res.Window > 0 {
				ctx.Header("Retry-After", strconv.FormatInt(int64(res.Window.Seconds()), 10))
			}
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error: fmt.Sprintf(abuseLimitMessage, res.Limit, model.FormatWindow(res.Window)),
			})
			return
		}
		ctx.Next()
	}
}
