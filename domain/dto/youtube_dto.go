package dto

import "youtube-card/domain/model"

// YouTubeVideoRequest selects a video by id or by any supported YouTube URL
type YouTubeVideoRequest struct {
	VideoID  string `form:"videoId" json:"videoId"`
	VideoURL string `form:"videoUrl" json:"videoUrl"`
	Inline   bool   `form:"inline" json:"inline"`
}

// YouTubeVideoResponse is the formatted card data for one video
type YouTubeVideoResponse struct {
	VideoID string `json:"videoId"`
	model.VideoMetadata
}

// Base64Request is the query of GET /api/base64
type Base64Request struct {
	Href string `form:"href" binding:"required,url"`
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
