package http

import (
	"context"
	"net/http"

	"youtube-card/domain/dto"
	"youtube-card/domain/model"
	"youtube-card/infrastructure/logger"
	"youtube-card/infrastructure/realtime"
	"youtube-card/usecase"

	"github.com/gin-gonic/gin"
)

type IRenderHandler interface {
	Render(ctx *gin.Context)
	Progress(ctx *gin.Context)
	Stream(ctx *gin.Context)
}

type RenderHandler struct {
	orchestrator usecase.IRenderOrchestrator
	hub          *realtime.Hub
}

func NewRenderHandler(orchestrator usecase.IRenderOrchestrator, hub *realtime.Hub) IRenderHandler {
	return &RenderHandler{orchestrator: orchestrator, hub: hub}
}

// Render handles POST /api/lambda/render/:compositionId
func (h *RenderHandler) Render(ctx *gin.Context) {
	req := dto.NewRenderRequest()
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, bindError(err))
		return
	}
	job, err := h.orchestrator.Submit(ctx.Request.Context(), ctx.ClientIP(), ctx.Param("compositionId"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.RenderResponse{RenderID: job.ID, BucketName: job.BucketName})
}

// Progress handles POST /api/lambda/progress/:bucketName/:renderId
func (h *RenderHandler) Progress(ctx *gin.Context) {
	job, err := h.orchestrator.Poll(ctx.Request.Context(), ctx.Param("bucketName"), ctx.Param("renderId"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	status := http.StatusOK
	if job.Status == model.RenderFailed {
		status = http.StatusInternalServerError
	}
	ctx.JSON(status, dto.NewRenderProgressResponse(job))
}

// Stream handles GET /api/lambda/stream/:bucketName/:renderId with Server-Sent Events.
// One tracker per render polls the farm, however many clients listen.
func (h *RenderHandler) Stream(ctx *gin.Context) {
	bucketName, renderID := ctx.Param("bucketName"), ctx.Param("renderId")
	if bucketName == "" || renderID == "" {
		respondError(ctx, model.NewValidationError("missing render handle").Add("renderId", "required"))
		return
	}
	key := realtime.RenderKey(bucketName, renderID)

	h.hub.Serve(ctx, key, func() {
		h.hub.Track(key, func(trackCtx context.Context) {
			_, err := h.orchestrator.Await(trackCtx, bucketName, renderID, h.hub.Broadcast)
			if err != nil {
				if trackCtx.Err() != nil {
					logger.GetLogger().WithField("renderId", renderID).Debug("Stopped following render, no listeners left")
					return
				}
				logger.GetLogger().WithFields(map[string]interface{}{
					"error":    err,
					"renderId": renderID,
				}).Warn("Stopped following render")
				h.hub.BroadcastError(bucketName, renderID, err.Error())
			}
		})
	})
}
