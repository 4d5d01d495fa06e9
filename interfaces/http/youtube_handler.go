package http

import (
	"net/http"

	"youtube-card/domain/dto"
	"youtube-card/domain/model"
	"youtube-card/domain/repository"
	"youtube-card/usecase"

	"github.com/gin-gonic/gin"
)

// IYouTubeHandler defines the interface for YouTube HTTP handlers
type IYouTubeHandler interface {
	GetVideoDetails(ctx *gin.Context)
	GetVideoByURL(ctx *gin.Context)
	InvalidateCache(ctx *gin.Context)
	Base64(ctx *gin.Context)
}

// YouTubeHandler implements the YouTube HTTP handlers
type YouTubeHandler struct {
	youtubeUseCase usecase.IYouTubeUseCase
	images         repository.IImageFetcher
}

// NewYouTubeHandler creates a new YouTube handler instance
func NewYouTubeHandler(youtubeUseCase usecase.IYouTubeUseCase, images repository.IImageFetcher) IYouTubeHandler {
	return &YouTubeHandler{
		youtubeUseCase: youtubeUseCase,
		images:         images,
	}
}

// GetVideoDetails handles GET /api/youtube/video/:videoId
func (h *YouTubeHandler) GetVideoDetails(ctx *gin.Context) {
	var req dto.YouTubeVideoRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		respondError(ctx, bindError(err))
		return
	}
	req.VideoID = ctx.Param("videoId")
	h.respondVideo(ctx, req)
}

// GetVideoByURL handles GET /api/youtube/video?videoUrl=
func (h *YouTubeHandler) GetVideoByURL(ctx *gin.Context) {
	var req dto.YouTubeVideoRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		respondError(ctx, bindError(err))
		return
	}
	h.respondVideo(ctx, req)
}

func (h *YouTubeHandler) respondVideo(ctx *gin.Context, req dto.YouTubeVideoRequest) {
	videoID, err := model.ResolveVideoID(req.VideoID, req.VideoURL)
	if err != nil {
		respondError(ctx, err)
		return
	}

	meta, err := h.youtubeUseCase.GetVideoDetails(ctx.Request.Context(), ctx.ClientIP(), videoID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	if req.Inline {
		h.youtubeUseCase.InlineThumbnails(ctx.Request.Context(), meta)
	}

	ctx.JSON(http.StatusOK, dto.YouTubeVideoResponse{VideoID: videoID, VideoMetadata: *meta})
}

// InvalidateCache handles DELETE /api/cache/:kind/:id
func (h *YouTubeHandler) InvalidateCache(ctx *gin.Context) {
	kind := model.ResourceKind(ctx.Param("kind"))
	if err := h.youtubeUseCase.Invalidate(ctx.Request.Context(), kind, ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Base64 handles GET /api/base64?href= and answers the image as a data URI
func (h *YouTubeHandler) Base64(ctx *gin.Context) {
	var req dto.Base64Request
	if err := ctx.ShouldBindQuery(&req); err != nil {
		respondError(ctx, model.NewValidationError("missing href").Add("href", err.Error()))
		return
	}
	uri, err := h.images.FetchDataURI(ctx.Request.Context(), req.Href)
	if err != nil {
		respondError(ctx, &model.UpstreamError{Message: "failed to fetch image", Err: err})
		return
	}
	ctx.String(http.StatusOK, uri)
}
