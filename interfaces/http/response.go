package http

import (
	"errors"
	"net/http"
	"strconv"

	"youtube-card/domain/dto"
	"youtube-card/domain/model"
	"youtube-card/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

// respondError writes the error body with the status its kind maps to.
// Infrastructure faults are logged and answered with a generic message.
func respondError(ctx *gin.Context, err error) {
	status := model.HTTPStatus(err)
	res := dto.ErrorResponse{Error: err.Error()}

	var verr *model.ValidationError
	if errors.As(err, &verr) {
		res.Error = verr.Message
		res.Fields = verr.Fields
	}
	var rl *model.RateLimitError
	if errors.As(err, &rl) && rl.Window > 0 {
		ctx.Header("Retry-After", strconv.FormatInt(int64(rl.Window.Seconds()), 10))
	}

	if status == http.StatusInternalServerError {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":  err,
			"method": ctx.Request.Method,
			"path":   ctx.FullPath(),
		}).Error("Request failed")
		res = dto.ErrorResponse{Error: "Internal server error"}
	}
	ctx.AbortWithStatusJSON(status, res)
}

// bindError turns a binding failure into a validation error.
func bindError(err error) error {
	return model.NewValidationError("invalid request").Add("body", err.Error())
}
