package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"youtube-card/domain/model"
	"youtube-card/domain/repository"
	"youtube-card/infrastructure/logger"
	"youtube-card/infrastructure/utils"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// lookupTimeout bounds one shared cache-or-fetch round, whoever is waiting on it.
const lookupTimeout = 15 * time.Second

const freeLimitMessage = "Tu as dépassé la limite de %d demandes sur %s, envoi un email à %s pour un accès sans limite."

// IYouTubeUseCase defines the interface for YouTube metadata operations
type IYouTubeUseCase interface {
	GetVideo(ctx context.Context, identity, videoID string) (*model.VideoRecord, error)
	GetChannel(ctx context.Context, identity, channelID string) (*model.ChannelRecord, error)
	// GetVideoDetails composes the video and its channel into card content
	GetVideoDetails(ctx context.Context, identity, videoID string) (*model.VideoMetadata, error)
	// InlineThumbnails replaces thumbnail URLs with data URIs, keeping the URL when a download fails
	InlineThumbnails(ctx context.Context, meta *model.VideoMetadata)
	Invalidate(ctx context.Context, kind model.ResourceKind, id string) error
	InvalidateVideo(ctx context.Context, videoID string) error
	InvalidateChannel(ctx context.Context, channelID string) error
}

// YouTubeOptions holds the cache lifetimes and the contact shown to rate-limited callers.
type YouTubeOptions struct {
	VideoTTL     time.Duration
	ChannelTTL   time.Duration
	SupportEmail string
}

func (o YouTubeOptions) ttl(kind model.ResourceKind) time.Duration {
	if kind == model.ResourceChannel {
		return o.ChannelTTL
	}
	return o.VideoTTL
}

// YouTubeUseCase implements the YouTube use case operations
type YouTubeUseCase struct {
	source  repository.IMetadataSource
	cache   repository.IMetadataCache
	limiter repository.IRateLimiter // optional
	images  repository.IImageFetcher
	opts    YouTubeOptions
	now     utils.Clock
	group   singleflight.Group
}

// NewYouTubeUseCase creates a new YouTube use case instance
func NewYouTubeUseCase(source repository.IMetadataSource, cache repository.IMetadataCache, limiter repository.IRateLimiter, opts YouTubeOptions) *YouTubeUseCase {
	return &YouTubeUseCase{source: source, cache: cache, limiter: limiter, opts: opts, now: utils.GetCurrentTime}
}

// WithImages enables thumbnail inlining (fluent)
func (u *YouTubeUseCase) WithImages(images repository.IImageFetcher) *YouTubeUseCase {
	u.images = images
	return u
}

// WithClock pins the instant relative dates are formatted against (fluent)
func (u *YouTubeUseCase) WithClock(now utils.Clock) *YouTubeUseCase {
	u.now = now.OrDefault()
	return u
}

func (u *YouTubeUseCase) GetVideo(ctx context.Context, identity, videoID string) (*model.VideoRecord, error) {
	return load(ctx, u, identity, model.ResourceVideo, videoID, func(ctx context.Context) (*model.VideoRecord, error) {
		return u.source.FetchVideo(ctx, videoID, model.ResourceVideo.Parts())
	})
}

func (u *YouTubeUseCase) GetChannel(ctx context.Context, identity, channelID string) (*model.ChannelRecord, error) {
	return load(ctx, u, identity, model.ResourceChannel, channelID, func(ctx context.Context) (*model.ChannelRecord, error) {
		return u.source.FetchChannel(ctx, channelID, model.ResourceChannel.Parts())
	})
}

// GetVideoDetails looks the channel up only once the video is known. Any channel failure reads as a missing video.
func (u *YouTubeUseCase) GetVideoDetails(ctx context.Context, identity, videoID string) (*model.VideoMetadata, error) {
	video, err := u.GetVideo(ctx, identity, videoID)
	if err != nil {
		return nil, err
	}
	if video.ChannelID == "" {
		logger.GetLogger().WithField("videoId", videoID).Warn("Video has no channel")
		return nil, &model.NotFoundError{Kind: model.ResourceVideo, ID: videoID}
	}

	channel, err := u.GetChannel(ctx, identity, video.ChannelID)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":     err,
			"videoId":   videoID,
			"channelId": video.ChannelID,
		}).Warn("Channel lookup failed")
		return nil, &model.NotFoundError{Kind: model.ResourceVideo, ID: videoID}
	}

	meta := model.NewVideoMetadata(video, channel, u.now())
	return &meta, nil
}

func (u *YouTubeUseCase) InlineThumbnails(ctx context.Context, meta *model.VideoMetadata) {
	inlineImages(ctx, u.images, meta)
}

func (u *YouTubeUseCase) Invalidate(ctx context.Context, kind model.ResourceKind, id string) error {
	if !kind.Valid() {
		return model.NewValidationError("unknown resource kind").Add("kind", "must be video or channel")
	}
	if id == "" {
		return model.NewValidationError("missing id").Add("id", "required")
	}
	if err := u.cache.Delete(ctx, kind.CacheKey(id)); err != nil {
		return fmt.Errorf("invalidate %s %s: %w", kind, id, err)
	}
	logger.GetLogger().WithFields(map[string]interface{}{"kind": kind, "id": id}).Info("Cache entry invalidated")
	return nil
}

func (u *YouTubeUseCase) InvalidateVideo(ctx context.Context, videoID string) error {
	return u.Invalidate(ctx, model.ResourceVideo, videoID)
}

func (u *YouTubeUseCase) InvalidateChannel(ctx context.Context, channelID string) error {
	return u.Invalidate(ctx, model.ResourceChannel, channelID)
}

// load runs the cache, free quota, upstream and write-through cycle for one record.
// Concurrent misses for the same identity and key share one cycle.
func load[T any](ctx context.Context, u *YouTubeUseCase, identity string, kind model.ResourceKind, id string, fetch func(context.Context) (*T, error)) (*T, error) {
	if id == "" {
		return nil, model.NewValidationError("missing id").Add(string(kind)+"Id", "required")
	}
	key := kind.CacheKey(id)

	results := u.group.DoChan(identity+"|"+key, func() (interface{}, error) {
		// the lookup outlives the caller that started it
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()

		if record, ok, err := cached[T](ctx, u.cache, key); err != nil {
			return nil, err
		} else if ok {
			return record, nil
		}

		if err := u.admit(ctx, identity); err != nil {
			return nil, err
		}

		record, err := fetch(ctx)
		if err != nil {
			var upstream *model.UpstreamError
			if errors.As(err, &upstream) {
				return nil, err
			}
			return nil, &model.UpstreamError{Message: "Unknown error", Err: err}
		}
		if record == nil {
			return nil, &model.NotFoundError{Kind: kind, ID: id}
		}

		u.store(ctx, kind, key, record)
		return record, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*T), nil
	}
}

// cached reads one record. Undecodable entries count as misses.
func cached[T any](ctx context.Context, cache repository.IMetadataCache, key string) (*T, bool, error) {
	data, ok, err := cache.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("read cache %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"error": err, "key": key}).Warn("Discarding corrupt cache entry")
		return nil, false, nil
	}
	return &record, true, nil
}

func (u *YouTubeUseCase) admit(ctx context.Context, identity string) error {
	if u.limiter == nil {
		return nil
	}
	res, err := u.limiter.Limit(ctx, identity, repository.QuotaFree)
	if err != nil {
		return fmt.Errorf("free quota check: %w", err)
	}
	if res.Allowed {
		return nil
	}
	return &model.RateLimitError{
		Class:   string(repository.QuotaFree),
		Limit:   res.Limit,
		Window:  res.Window,
		Message: fmt.Sprintf(freeLimitMessage, res.Limit, model.FormatWindow(res.Window), u.opts.SupportEmail),
	}
}

func (u *YouTubeUseCase) store(ctx context.Context, kind model.ResourceKind, key string, record interface{}) {
	payload, err := json.Marshal(record)
	if err == nil {
		err = u.cache.Set(ctx, key, payload, u.opts.ttl(kind))
	}
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"error": err, "key": key}).Warn("Failed to write metadata cache")
	}
}

// inlineImages embeds both thumbnails as data URIs in parallel.
func inlineImages(ctx context.Context, images repository.IImageFetcher, meta *model.VideoMetadata) {
	if images == nil || meta == nil {
		return
	}
	targets := []*string{&meta.Thumbnail, &meta.Channel.Thumbnail}
	g, gctx := errgroup.WithContext(ctx)
	for _, target := range targets {
		href := *target
		if href == "" {
			continue
		}
		g.Go(func() error {
			uri, err := images.FetchDataURI(gctx, href)
			if err != nil {
				logger.GetLogger().WithFields(map[string]interface{}{"error": err, "href": href}).Warn("Keeping remote image")
				return nil
			}
			*target = uri
			return nil
		})
	}
	_ = g.Wait()
}
