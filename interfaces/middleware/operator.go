package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"youtube-card/domain/dto"
	"youtube-card/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

// OperatorAuth admits requests carrying "Authorization: Bearer <token>". An empty token closes the route.
func OperatorAuth(token string) gin.HandlerFunc {
	unauthorized := dto.ErrorResponse{Error: "Unauthorized"}

	return func(ctx *gin.Context) {
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Error: "Operator access is not configured"})
			return
		}
		bearer, found := strings.CutPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if !found || subtle.ConstantTimeCompare([]byte(bearer), []byte(token)) != 1 {
			logger.GetLogger().WithFields(map[string]interface{}{
				"ip":   ctx.ClientIP(),
				"path": ctx.FullPath(),
			}).Warn("Rejected operator request")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}
		ctx.Next()
	}
}
