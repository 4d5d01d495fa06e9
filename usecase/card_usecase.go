package usecase

import (
	"context"
	"fmt"

	"youtube-card/domain/card"
	"youtube-card/domain/dto"
	"youtube-card/domain/model"
	"youtube-card/domain/repository"
	"youtube-card/infrastructure/logger"
	"youtube-card/infrastructure/utils"
)

// ICardUseCase renders video cards as PNG stills, animation frames or SVG previews.
type ICardUseCase interface {
	RenderStill(ctx context.Context, identity string, req dto.CardRequest) (*model.RasterImage, error)
	RenderFrame(ctx context.Context, identity string, req dto.FrameRequest) (*model.RasterImage, error)
	Preview(ctx context.Context, req dto.PreviewRequest) ([]byte, error)
}

type CardUseCase struct {
	videos     IYouTubeUseCase
	rasterizer repository.IRasterizer
	images     repository.IImageFetcher // optional
	measurer   card.TextMeasurer
	now        utils.Clock
}

// NewCardUseCase builds the card renderer. A nil measurer falls back to the width estimate.
func NewCardUseCase(videos IYouTubeUseCase, rasterizer repository.IRasterizer, measurer card.TextMeasurer) *CardUseCase {
	if measurer == nil {
		measurer = card.EstimateMeasurer{}
	}
	return &CardUseCase{videos: videos, rasterizer: rasterizer, measurer: measurer, now: utils.GetCurrentTime}
}

// WithImages embeds remote images before rasterizing (fluent)
func (u *CardUseCase) WithImages(images repository.IImageFetcher) *CardUseCase {
	u.images = images
	return u
}

// WithClock pins the preview clock (fluent)
func (u *CardUseCase) WithClock(now utils.Clock) *CardUseCase {
	u.now = now.OrDefault()
	return u
}

func (u *CardUseCase) RenderStill(ctx context.Context, identity string, req dto.CardRequest) (*model.RasterImage, error) {
	return u.render(ctx, identity, req, nil)
}

func (u *CardUseCase) RenderFrame(ctx context.Context, identity string, req dto.FrameRequest) (*model.RasterImage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	theme, err := checkTheme(req.ResolvedTheme())
	if err != nil {
		return nil, err
	}
	anim := card.FrameAnimation(theme, req.Frame, req.FPS, req.DurationInFrames)
	return u.render(ctx, identity, req.CardRequest, &anim)
}

// Preview lays the card out from caller-supplied details and returns the SVG. Nothing is fetched.
func (u *CardUseCase) Preview(ctx context.Context, req dto.PreviewRequest) ([]byte, error) {
	theme := model.DefaultTheme()
	if req.Theme != nil {
		theme = *req.Theme
	}
	theme, err := checkTheme(theme)
	if err != nil {
		return nil, err
	}
	scale, err := card.NewScale(theme, req.Factor(card.PreviewFactor))
	if err != nil {
		return nil, err
	}

	meta := model.DefaultVideoMetadata(u.now())
	if req.VideoDetails != nil {
		meta = req.VideoDetails.Metadata(u.now())
	}

	doc, err := card.Layout(theme, meta, scale, nil, u.measurer)
	if err != nil {
		return nil, err
	}
	return doc.SVG(), nil
}

func (u *CardUseCase) render(ctx context.Context, identity string, req dto.CardRequest, anim *card.Animation) (*model.RasterImage, error) {
	videoID, err := model.ResolveVideoID(req.VideoID, req.VideoURL)
	if err != nil {
		return nil, err
	}
	theme, err := checkTheme(req.ResolvedTheme())
	if err != nil {
		return nil, err
	}
	scale, err := card.NewScale(theme, req.Factor(card.ExportFactor))
	if err != nil {
		return nil, err
	}

	meta, err := u.videos.GetVideoDetails(ctx, identity, videoID)
	if err != nil {
		return nil, err
	}
	inlineImages(ctx, u.images, meta)

	doc, err := card.Layout(theme, *meta, scale, anim, u.measurer)
	if err != nil {
		return nil, err
	}

	img, err := u.rasterizer.Rasterize(ctx, doc.SVG(), 0)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":   err,
			"videoId": videoID,
		}).Warn("Card rasterization failed")
		return nil, fmt.Errorf("rasterize card %s: %w", videoID, err)
	}
	return img, nil
}

// checkTheme fills unset colors and rejects out-of-range values with per-field detail.
func checkTheme(theme model.Theme) (model.Theme, error) {
	theme.Normalize()
	if err := theme.Validate(); err != nil {
		return model.Theme{}, err
	}
	return theme, nil
}
