package http

import (
	"net/http"
	"strings"

	"youtube-card/domain/card"
	"youtube-card/domain/dto"
	"youtube-card/domain/model"
	"youtube-card/usecase"

	"github.com/gin-gonic/gin"
)

const (
	contentTypePNG = "image/png"
	contentTypeSVG = "image/svg+xml"
	cardPath       = "/api/card/youtube/video"
)

type ICardHandler interface {
	GetCard(ctx *gin.Context)
	PostCard(ctx *gin.Context)
	PostFrame(ctx *gin.Context)
	Preview(ctx *gin.Context)
	Link(ctx *gin.Context)
}

type CardHandler struct {
	cardUseCase usecase.ICardUseCase
	publicURL   string
}

func NewCardHandler(cardUseCase usecase.ICardUseCase, publicURL string) ICardHandler {
	return &CardHandler{cardUseCase: cardUseCase, publicURL: strings.TrimRight(publicURL, "/")}
}

// GetCard handles GET /api/card/youtube/video?videoUrl=&theme[card][background]=...
func (h *CardHandler) GetCard(ctx *gin.Context) {
	videoURL, theme, err := dto.ParseCardQuery(ctx.Request.URL.Query())
	if err != nil {
		respondError(ctx, err)
		return
	}
	factor := card.ExportFactor
	req := dto.CardRequest{VideoURL: videoURL, Theme: &theme, BaseFactor: &factor}
	img, err := h.cardUseCase.RenderStill(ctx.Request.Context(), ctx.ClientIP(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, contentTypePNG, img.PNG)
}

// PostCard handles POST /api/card/youtube/video
func (h *CardHandler) PostCard(ctx *gin.Context) {
	req := dto.NewCardRequest()
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, bindError(err))
		return
	}
	img, err := h.cardUseCase.RenderStill(ctx.Request.Context(), ctx.ClientIP(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, contentTypePNG, img.PNG)
}

// PostFrame handles POST /api/card/youtube/video/frame
func (h *CardHandler) PostFrame(ctx *gin.Context) {
	req := dto.NewFrameRequest()
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, bindError(err))
		return
	}
	img, err := h.cardUseCase.RenderFrame(ctx.Request.Context(), ctx.ClientIP(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, contentTypePNG, img.PNG)
}

// Preview handles POST /api/card/preview
func (h *CardHandler) Preview(ctx *gin.Context) {
	req := dto.NewPreviewRequest()
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, bindError(err))
		return
	}
	svg, err := h.cardUseCase.Preview(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.Data(http.StatusOK, contentTypeSVG, svg)
}

// Link handles GET /api/card/link and answers the image URL of a fully described card.
// themeName picks a preset; otherwise theme[...] keys are merged onto the light theme.
func (h *CardHandler) Link(ctx *gin.Context) {
	videoURL, theme, err := dto.ParseCardQuery(ctx.Request.URL.Query())
	if err != nil {
		respondError(ctx, err)
		return
	}
	if name := ctx.Query("themeName"); name != "" {
		theme = model.ThemeByName(name)
	}
	theme.Normalize()
	if err := theme.Validate(); err != nil {
		respondError(ctx, err)
		return
	}
	if _, err := model.ResolveVideoID("", videoURL); err != nil {
		respondError(ctx, err)
		return
	}

	encoded, err := dto.NewCardQuery(videoURL, theme).Encode()
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"url": h.publicURL + cardPath + "?" + encoded})
}
