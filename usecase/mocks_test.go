package usecase_test

import (
	"context"
	"time"

	"youtube-card/domain/model"
	"youtube-card/domain/repository"

	"github.com/stretchr/testify/mock"
)

// Mock implementations
type MockMetadataSource struct {
	mock.Mock
}

func (m *MockMetadataSource) FetchVideo(ctx context.Context, videoID string, parts []string) (*model.VideoRecord, error) {
	args := m.Called(ctx, videoID, parts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VideoRecord), args.Error(1)
}

func (m *MockMetadataSource) FetchChannel(ctx context.Context, channelID string, parts []string) (*model.ChannelRecord, error) {
	args := m.Called(ctx, channelID, parts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChannelRecord), args.Error(1)
}

type MockMetadataCache struct {
	mock.Mock
}

func (m *MockMetadataCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *MockMetadataCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockMetadataCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) Limit(ctx context.Context, identity string, class repository.QuotaClass) (repository.RateLimitResult, error) {
	args := m.Called(ctx, identity, class)
	return args.Get(0).(repository.RateLimitResult), args.Error(1)
}

type MockImageFetcher struct {
	mock.Mock
}

func (m *MockImageFetcher) FetchDataURI(ctx context.Context, href string) (string, error) {
	args := m.Called(ctx, href)
	return args.String(0), args.Error(1)
}

type MockRasterizer struct {
	mock.Mock
}

func (m *MockRasterizer) Rasterize(ctx context.Context, svg []byte, width int) (*model.RasterImage, error) {
	args := m.Called(ctx, svg, width)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RasterImage), args.Error(1)
}

type MockRenderCollaborator struct {
	mock.Mock
}

func (m *MockRenderCollaborator) StartRender(ctx context.Context, input repository.RenderInput) (*repository.RenderHandle, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.RenderHandle), args.Error(1)
}

func (m *MockRenderCollaborator) GetProgress(ctx context.Context, bucketName, renderID string) (*model.RenderSnapshot, error) {
	args := m.Called(ctx, bucketName, renderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RenderSnapshot), args.Error(1)
}

type MockRenderJobStore struct {
	mock.Mock
}

func (m *MockRenderJobStore) Save(ctx context.Context, job *model.RenderJob, ttl time.Duration) error {
	args := m.Called(ctx, job, ttl)
	return args.Error(0)
}

func (m *MockRenderJobStore) Finish(ctx context.Context, job *model.RenderJob, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, job, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockRenderJobStore) Get(ctx context.Context, bucketName, renderID string) (*model.RenderJob, error) {
	args := m.Called(ctx, bucketName, renderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RenderJob), args.Error(1)
}

type MockRenderEventPublisher struct {
	mock.Mock
}

func (m *MockRenderEventPublisher) PublishRenderEvent(ctx context.Context, job *model.RenderJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

type MockYouTubeUseCase struct {
	mock.Mock
}

func (m *MockYouTubeUseCase) GetVideo(ctx context.Context, identity, videoID string) (*model.VideoRecord, error) {
	args := m.Called(ctx, identity, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VideoRecord), args.Error(1)
}

func (m *MockYouTubeUseCase) GetChannel(ctx context.Context, identity, channelID string) (*model.ChannelRecord, error) {
	args := m.Called(ctx, identity, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChannelRecord), args.Error(1)
}

func (m *MockYouTubeUseCase) GetVideoDetails(ctx context.Context, identity, videoID string) (*model.VideoMetadata, error) {
	args := m.Called(ctx, identity, videoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.VideoMetadata), args.Error(1)
}

func (m *MockYouTubeUseCase) InlineThumbnails(ctx context.Context, meta *model.VideoMetadata) {
	m.Called(ctx, meta)
}

func (m *MockYouTubeUseCase) Invalidate(ctx context.Context, kind model.ResourceKind, id string) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

func (m *MockYouTubeUseCase) InvalidateVideo(ctx context.Context, videoID string) error {
	args := m.Called(ctx, videoID)
	return args.Error(0)
}

func (m *MockYouTubeUseCase) InvalidateChannel(ctx context.Context, channelID string) error {
	args := m.Called(ctx, channelID)
	return args.Error(0)
}
