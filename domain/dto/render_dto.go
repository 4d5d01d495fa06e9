package dto

import "youtube-card/domain/model"

// RenderRequest is the body of POST /api/lambda/render/:compositionId.
// When VideoURL or VideoID is set the details are looked up, otherwise VideoDetails is used as given.
type RenderRequest struct {
	Theme        *model.Theme        `json:"theme"`
	VideoDetails model.VideoMetadata `json:"videoDetails"`
	VideoURL     string              `json:"videoUrl,omitempty"`
	VideoID      string              `json:"videoId,omitempty"`
}

func NewRenderRequest() RenderRequest {
	theme := model.DefaultTheme()
	return RenderRequest{Theme: &theme}
}

// RenderResponse is the handle returned for a submitted render.
type RenderResponse struct {
	RenderID   string `json:"renderId"`
	BucketName string `json:"bucketName"`
}

const (
	ProgressTypeProgress = "progress"
	ProgressTypeDone     = "done"
	ProgressTypeError    = "error"
)

// RenderProgressResponse is one of {type:progress,progress}, {type:done,url,size} or {type:error,message}.
type RenderProgressResponse struct {
	Type     string  `json:"type"`
	Progress float64 `json:"progress,omitempty"`
	URL      string  `json:"url,omitempty"`
	Size     int64   `json:"size,omitempty"`
	Message  string  `json:"message,omitempty"`
}

func NewRenderProgressResponse(job *model.RenderJob) RenderProgressResponse {
	switch job.Status {
	case model.RenderFailed:
		return RenderProgressResponse{Type: ProgressTypeError, Message: job.Error}
	case model.RenderDone:
		return RenderProgressResponse{Type: ProgressTypeDone, URL: job.OutputURL, Size: job.OutputSize}
	}
	return RenderProgressResponse{Type: ProgressTypeProgress, Progress: job.DisplayProgress()}
}
