package repository

import (
	"context"

	"youtube-card/domain/model"
)

// IImageFetcher downloads remote images and returns them as data URIs.
type IImageFetcher interface {
	FetchDataURI(ctx context.Context, href string) (string, error)
}

// IRasterizer turns an SVG document into PNG bytes at the document width.
type IRasterizer interface {
	Rasterize(ctx context.Context, svg []byte, width int) (*model.RasterImage, error)
}
