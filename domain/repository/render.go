package repository

import (
	"context"
	"time"

	"youtube-card/domain/model"
)

// RenderInput is the single payload a render farm receives for one export.
type RenderInput struct {
	CompositionID string              `json:"composition"`
	Theme         model.Theme         `json:"theme"`
	VideoDetails  model.VideoMetadata `json:"videoDetails"`
	Codec         string              `json:"codec"`
	FileName      string              `json:"fileName"`
}

type RenderHandle struct {
	RenderID   string `json:"renderId"`
	BucketName string `json:"bucketName"`
}

// IRenderCollaborator is the external render farm.
type IRenderCollaborator interface {
	StartRender(ctx context.Context, input RenderInput) (*RenderHandle, error)
	GetProgress(ctx context.Context, bucketName, renderID string) (*model.RenderSnapshot, error)
}

// IRenderJobStore keeps render jobs where every instance can read them.
type IRenderJobStore interface {
	Save(ctx context.Context, job *model.RenderJob, ttl time.Duration) error
	// Finish stores a terminal job unless the stored one is already terminal. It
	// reports whether this call made the transition.
	Finish(ctx context.Context, job *model.RenderJob, ttl time.Duration) (bool, error)
	Get(ctx context.Context, bucketName, renderID string) (*model.RenderJob, error)
}

// IRenderEventPublisher announces finished renders.
type IRenderEventPublisher interface {
	PublishRenderEvent(ctx context.Context, job *model.RenderJob) error
}
