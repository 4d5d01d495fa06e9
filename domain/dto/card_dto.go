package dto

import "youtube-card/domain/model"

const (
	DefaultFPS              = 30
	DefaultDurationInFrames = 150
)

// CardRequest is the body of POST /api/card/youtube/video.
// Theme fields absent from the body keep the value of the preset named by ThemeName.
type CardRequest struct {
	VideoURL   string       `json:"videoUrl"`
	VideoID    string       `json:"videoId"`
	ThemeName  string       `json:"themeName,omitempty"`
	Theme      *model.Theme `json:"theme"`
	BaseFactor *float64     `json:"baseFactor,omitempty"`
}

// NewCardRequest pre-fills the light theme so JSON decoding merges onto it.
func NewCardRequest() CardRequest {
	theme := model.DefaultTheme()
	return CardRequest{Theme: &theme}
}

// ResolvedTheme returns the request theme, falling back to the named preset.
func (r CardRequest) ResolvedTheme() model.Theme {
	if r.Theme == nil {
		return model.ThemeByName(r.ThemeName)
	}
	return *r.Theme
}

// Factor returns the requested base factor or fallback.
func (r CardRequest) Factor(fallback float64) float64 {
	if r.BaseFactor == nil {
		return fallback
	}
	return *r.BaseFactor
}

// FrameRequest asks for one frame of the animated card.
type FrameRequest struct {
	CardRequest
	Frame            int `json:"frame"`
	FPS              int `json:"fps"`
	DurationInFrames int `json:"durationInFrames"`
}

func NewFrameRequest() FrameRequest {
	return FrameRequest{CardRequest: NewCardRequest(), FPS: DefaultFPS, DurationInFrames: DefaultDurationInFrames}
}

// Validate checks the timeline fields.
func (r FrameRequest) Validate() error {
	verr := model.NewValidationError("invalid frame request")
	if r.FPS <= 0 {
		verr.Add("fps", "must be positive")
	}
	if r.DurationInFrames <= 0 {
		verr.Add("durationInFrames", "must be positive")
	}
	if r.Frame < 0 || r.Frame > r.DurationInFrames {
		verr.Add("frame", "must be between 0 and durationInFrames")
	}
	return verr.OrNil()
}

// PreviewRequest renders an SVG from caller-supplied details, without any upstream call.
type PreviewRequest struct {
	Theme        *model.Theme      `json:"theme"`
	VideoDetails *model.VideoInput `json:"videoDetails"`
	BaseFactor   *float64          `json:"baseFactor,omitempty"`
}

func NewPreviewRequest() PreviewRequest {
	theme := model.DefaultTheme()
	return PreviewRequest{Theme: &theme}
}

func (r PreviewRequest) Factor(fallback float64) float64 {
	if r.BaseFactor == nil {
		return fallback
	}
	return *r.BaseFactor
}
