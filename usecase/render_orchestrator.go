package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"youtube-card/domain/dto"
	"youtube-card/domain/model"
	"youtube-card/domain/repository"
	"youtube-card/infrastructure/logger"
	"youtube-card/infrastructure/utils"
)

const (
	renderCodec         = "vp8"
	renderFileExtension = ".webm"

	defaultPollInterval  = time.Second
	defaultPollTimeout   = 10 * time.Minute
	defaultMaxPollErrors = 5
	defaultJobTTL        = 24 * time.Hour
)

// IRenderOrchestrator drives video exports on the render farm.
type IRenderOrchestrator interface {
	Submit(ctx context.Context, identity, compositionID string, req dto.RenderRequest) (*model.RenderJob, error)
	Poll(ctx context.Context, bucketName, renderID string) (*model.RenderJob, error)
	// Await polls until the job is terminal, the ceiling is reached or too many polls fail in a row.
	Await(ctx context.Context, bucketName, renderID string, onUpdate func(*model.RenderJob)) (*model.RenderJob, error)
}

type RenderOptions struct {
	PollInterval  time.Duration
	PollTimeout   time.Duration
	MaxPollErrors int
	JobTTL        time.Duration
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = defaultPollTimeout
	}
	if o.MaxPollErrors <= 0 {
		o.MaxPollErrors = defaultMaxPollErrors
	}
	if o.JobTTL <= 0 {
		o.JobTTL = defaultJobTTL
	}
	return o
}

type RenderOrchestrator struct {
	farm      repository.IRenderCollaborator
	jobs      repository.IRenderJobStore
	videos    IYouTubeUseCase                  // optional
	publisher repository.IRenderEventPublisher // optional
	opts      RenderOptions
	now       utils.Clock
}

func NewRenderOrchestrator(farm repository.IRenderCollaborator, jobs repository.IRenderJobStore, opts RenderOptions) *RenderOrchestrator {
	return &RenderOrchestrator{farm: farm, jobs: jobs, opts: opts.withDefaults(), now: utils.GetCurrentTime}
}

// WithVideos lets requests name a video instead of sending its details (fluent)
func (o *RenderOrchestrator) WithVideos(videos IYouTubeUseCase) *RenderOrchestrator {
	o.videos = videos
	return o
}

// WithPublisher announces finished renders (fluent)
func (o *RenderOrchestrator) WithPublisher(publisher repository.IRenderEventPublisher) *RenderOrchestrator {
	o.publisher = publisher
	return o
}

func (o *RenderOrchestrator) WithClock(now utils.Clock) *RenderOrchestrator {
	o.now = now.OrDefault()
	return o
}

// Submit sends theme and details to the farm in a single request and records the queued job.
func (o *RenderOrchestrator) Submit(ctx context.Context, identity, compositionID string, req dto.RenderRequest) (*model.RenderJob, error) {
	if strings.TrimSpace(compositionID) == "" {
		return nil, model.NewValidationError("missing composition").Add("compositionId", "required")
	}
	theme := model.DefaultTheme()
	if req.Theme != nil {
		theme = *req.Theme
	}
	theme, err := checkTheme(theme)
	if err != nil {
		return nil, err
	}

	details, err := o.details(ctx, identity, req)
	if err != nil {
		return nil, err
	}

	input := repository.RenderInput{
		CompositionID: compositionID,
		Theme:         theme,
		VideoDetails:  details,
		Codec:         renderCodec,
		FileName:      details.Title + renderFileExtension,
	}
	handle, err := o.farm.StartRender(ctx, input)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{
			"error":       err,
			"composition": compositionID,
		}).Error("Failed to start render")
		return nil, &model.UpstreamError{Message: "failed to start render", Err: err}
	}

	job := model.NewRenderJob(handle.RenderID, handle.BucketName, compositionID, details.Title, o.now())
	o.save(ctx, job)
	logger.GetLogger().WithFields(map[string]interface{}{
		"renderId":    job.ID,
		"bucketName":  job.BucketName,
		"composition": compositionID,
	}).Info("Render submitted")
	return job, nil
}

func (o *RenderOrchestrator) details(ctx context.Context, identity string, req dto.RenderRequest) (model.VideoMetadata, error) {
	if req.VideoID == "" && req.VideoURL == "" {
		if req.VideoDetails == (model.VideoMetadata{}) {
			return model.DefaultVideoMetadata(o.now()), nil
		}
		return req.VideoDetails, nil
	}
	if o.videos == nil {
		return model.VideoMetadata{}, model.NewValidationError("video lookup unavailable").Add("videoDetails", "required")
	}
	videoID, err := model.ResolveVideoID(req.VideoID, req.VideoURL)
	if err != nil {
		return model.VideoMetadata{}, err
	}
	meta, err := o.videos.GetVideoDetails(ctx, identity, videoID)
	if err != nil {
		return model.VideoMetadata{}, err
	}
	return *meta, nil
}

// Poll performs one status round trip. Terminal jobs are answered from the store.
func (o *RenderOrchestrator) Poll(ctx context.Context, bucketName, renderID string) (*model.RenderJob, error) {
	if bucketName == "" || renderID == "" {
		return nil, model.NewValidationError("missing render handle").Add("renderId", "required").Add("bucketName", "required")
	}
	job := o.load(ctx, bucketName, renderID)
	if job.Status.Terminal() {
		return job, nil
	}

	snapshot, err := o.farm.GetProgress(ctx, bucketName, renderID)
	if err != nil {
		var status interface{ NotFound() bool }
		if errors.As(err, &status) && status.NotFound() {
			return nil, &model.NotFoundError{Kind: model.ResourceRender, ID: renderID}
		}
		return nil, fmt.Errorf("poll render %s: %w", renderID, err)
	}

	if err := job.Apply(*snapshot, o.now()); err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return o.finish(ctx, job), nil
	}
	o.save(ctx, job)
	return job, nil
}

// finish records the terminal state once. Only the poller that made the transition
// announces it; the others answer with what the winner stored.
func (o *RenderOrchestrator) finish(ctx context.Context, job *model.RenderJob) *model.RenderJob {
	written, err := o.jobs.Finish(ctx, job, o.opts.JobTTL)
	if err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"error": err, "renderId": job.ID}).Warn("Failed to save render job")
		o.publish(ctx, job)
		return job
	}
	if !written {
		if stored, err := o.jobs.Get(ctx, job.BucketName, job.ID); err == nil && stored.Status.Terminal() {
			return stored
		}
		return job
	}
	o.publish(ctx, job)
	return job
}

func (o *RenderOrchestrator) Await(ctx context.Context, bucketName, renderID string, onUpdate func(*model.RenderJob)) (*model.RenderJob, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.PollTimeout)
	defer cancel()

	ticker := time.NewTicker(o.opts.PollInterval)
	defer ticker.Stop()

	var last *model.RenderJob
	failures := 0
	for {
		job, err := o.Poll(ctx, bucketName, renderID)
		switch {
		case err == nil:
			failures = 0
			last = job
			if onUpdate != nil {
				onUpdate(job)
			}
			if job.Status.Terminal() {
				return job, nil
			}
		case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrValidation):
			return last, err
		case ctx.Err() != nil:
		default:
			failures++
			logger.GetLogger().WithFields(map[string]interface{}{
				"error":    err,
				"renderId": renderID,
				"failures": failures,
			}).Warn("Render poll failed")
			if failures > o.opts.MaxPollErrors {
				return last, fmt.Errorf("render %s: %d consecutive poll failures: %w", renderID, failures, err)
			}
		}

		select {
		case <-ctx.Done():
			return last, fmt.Errorf("render %s did not finish within %s: %w", renderID, o.opts.PollTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// load returns the stored job, or a fresh one when the store has none. The farm stays the authority.
func (o *RenderOrchestrator) load(ctx context.Context, bucketName, renderID string) *model.RenderJob {
	job, err := o.jobs.Get(ctx, bucketName, renderID)
	if err == nil {
		return job
	}
	if !errors.Is(err, model.ErrNotFound) {
		logger.GetLogger().WithFields(map[string]interface{}{"error": err, "renderId": renderID}).Warn("Failed to load render job")
	}
	return model.NewRenderJob(renderID, bucketName, "", "", o.now())
}

func (o *RenderOrchestrator) save(ctx context.Context, job *model.RenderJob) {
	if err := o.jobs.Save(ctx, job, o.opts.JobTTL); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"error": err, "renderId": job.ID}).Warn("Failed to save render job")
	}
}

func (o *RenderOrchestrator) publish(ctx context.Context, job *model.RenderJob) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishRenderEvent(ctx, job); err != nil {
		logger.GetLogger().WithFields(map[string]interface{}{"error": err, "renderId": job.ID}).Warn("Failed to publish render event")
	}
}
