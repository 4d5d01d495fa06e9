package repository

import (
	"context"

	"youtube-card/domain/model"
)

// IMetadataSource is the upstream metadata provider. An empty result is (nil, nil).
type IMetadataSource interface {
	FetchVideo(ctx context.Context, videoID string, parts []string) (*model.VideoRecord, error)
	FetchChannel(ctx context.Context, channelID string, parts []string) (*model.ChannelRecord, error)
}
