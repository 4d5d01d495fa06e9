package model

import (
	"fmt"
	"math"
	"time"
)

type RenderStatus string

const (
	RenderQueued     RenderStatus = "queued"
	RenderInProgress RenderStatus = "in-progress"
	RenderDone       RenderStatus = "done"
	RenderFailed     RenderStatus = "failed"
)

// MinDisplayedProgress keeps the progress bar visibly moving as soon as a render starts.
const MinDisplayedProgress = 0.03

func (s RenderStatus) rank() int {
	switch s {
	case RenderQueued:
		return 0
	case RenderInProgress:
		return 1
	case RenderDone, RenderFailed:
		return 2
	}
	return -1
}

func (s RenderStatus) Terminal() bool {
	return s == RenderDone || s == RenderFailed
}

// RenderJob tracks one export on the render farm.
type RenderJob struct {
	ID            string       `json:"renderId"`
	BucketName    string       `json:"bucketName"`
	CompositionID string       `json:"compositionId,omitempty"`
	Title         string       `json:"title,omitempty"`
	Status        RenderStatus `json:"status"`
	Progress      float64      `json:"progress"`
	OutputURL     string       `json:"url,omitempty"`
	OutputSize    int64        `json:"size,omitempty"`
	Error         string       `json:"error,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// RenderSnapshot is one status report from the render farm.
type RenderSnapshot struct {
	Done            bool
	Fatal           bool
	OverallProgress float64
	OutputURL       string
	OutputSize      int64
	ErrorMessage    string
}

// Status derives the job state this snapshot reports.
func (s RenderSnapshot) Status() RenderStatus {
	switch {
	case s.Fatal:
		return RenderFailed
	case s.Done:
		return RenderDone
	}
	return RenderInProgress
}

func NewRenderJob(id, bucket, compositionID, title string, at time.Time) *RenderJob {
	return &RenderJob{
		ID:            id,
		BucketName:    bucket,
		CompositionID: compositionID,
		Title:         title,
		Status:        RenderQueued,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
}

// Apply moves the job forward. Terminal jobs reject updates and backward moves are ignored.
func (j *RenderJob) Apply(s RenderSnapshot, at time.Time) error {
	if j.Status.Terminal() {
		return fmt.Errorf("apply %s to render %s: %w", s.Status(), j.ID, ErrTerminalJob)
	}
	next := s.Status()
	if next.rank() < j.Status.rank() {
		return nil
	}
	j.Status = next
	j.UpdatedAt = at
	switch next {
	case RenderDone:
		j.Progress = 1
		j.OutputURL = s.OutputURL
		j.OutputSize = s.OutputSize
	case RenderFailed:
		j.Error = s.ErrorMessage
	default:
		j.Progress = math.Max(j.Progress, clamp01(s.OverallProgress))
	}
	return nil
}

// DisplayProgress is the progress shown to clients, never below MinDisplayedProgress.
func (j *RenderJob) DisplayProgress() float64 {
	return math.Max(MinDisplayedProgress, j.Progress)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}

// RenderEvent is the message announced when a render finishes.
type RenderEvent struct {
	Type       string    `json:"type"`
	RenderID   string    `json:"renderId"`
	BucketName string    `json:"bucketName"`
	Title      string    `json:"title,omitempty"`
	URL        string    `json:"url,omitempty"`
	Size       int64     `json:"size,omitempty"`
	Message    string    `json:"message,omitempty"`
	At         time.Time `json:"at"`
}

func NewRenderEvent(job *RenderJob) RenderEvent {
	event := RenderEvent{
		Type:       "render." + string(job.Status),
		RenderID:   job.ID,
		BucketName: job.BucketName,
		Title:      job.Title,
		At:         job.UpdatedAt,
	}
	switch job.Status {
	case RenderDone:
		event.URL = job.OutputURL
		event.Size = job.OutputSize
	case RenderFailed:
		event.Message = job.Error
	}
	return event
}
