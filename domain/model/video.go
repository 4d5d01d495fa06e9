package model

import (
	"time"
)

const (
	DefaultTitle            = "Je quitte mon CDI de Designer"
	DefaultThumbnail        = "https://i3.ytimg.com/vi/XEO3duW1A80/maxresdefault.jpg"
	DefaultDuration         = "PT9M27S"
	DefaultViews            = "0"
	DefaultPublishedAt      = "2022-08-14T09:00:23Z"
	DefaultChannelTitle     = "Gabin Aureche"
	DefaultChannelThumbnail = "https://yt3.ggpht.com/ytc/AIdro_kX4tEDpbRsS7FyyCqgHEB7zTQ_6pt8eYXXymcnDbs=s240-c-k-c0x00ffffff-no-rj"
)

type ChannelDetails struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// VideoMetadata is the display-ready card content. Every field is already formatted.
type VideoMetadata struct {
	Title       string         `json:"title"`
	Thumbnail   string         `json:"thumbnail"`
	Duration    string         `json:"duration"`
	Views       string         `json:"views"`
	PublishedAt string         `json:"publishedAt"`
	Channel     ChannelDetails `json:"channel"`
}

// VideoInput is the raw, provider-shaped form of the card content, before formatting.
// Empty fields fall back to the documented defaults.
type VideoInput struct {
	Title       string       `json:"title"`
	Thumbnail   string       `json:"thumbnail"`
	Duration    string       `json:"duration"`
	Views       string       `json:"views"`
	PublishedAt string       `json:"publishedAt"`
	Channel     ChannelInput `json:"channel"`
}

type ChannelInput struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// Metadata formats the input at the given instant.
func (in VideoInput) Metadata(now time.Time) VideoMetadata {
	title := orDefault(in.Title, DefaultTitle)
	thumbnail := orDefault(in.Thumbnail, DefaultThumbnail)

	duration, err := FormatDuration(orDefault(in.Duration, DefaultDuration))
	if err != nil {
		duration, _ = FormatDuration(DefaultDuration)
	}

	published, err := time.Parse(time.RFC3339, orDefault(in.PublishedAt, DefaultPublishedAt))
	if err != nil {
		published, _ = time.Parse(time.RFC3339, DefaultPublishedAt)
	}

	return VideoMetadata{
		Title:       title,
		Thumbnail:   thumbnail,
		Duration:    duration,
		Views:       FormatViews(orDefault(in.Views, DefaultViews)),
		PublishedAt: FormatRelativeFR(published, now),
		Channel: ChannelDetails{
			Title:     orDefault(in.Channel.Title, DefaultChannelTitle),
			Thumbnail: orDefault(in.Channel.Thumbnail, DefaultChannelThumbnail),
		},
	}
}

// DefaultVideoMetadata renders the placeholder card content.
func DefaultVideoMetadata(now time.Time) VideoMetadata {
	return VideoInput{}.Metadata(now)
}

// NewVideoInput picks the fields a card shows out of the provider records.
func NewVideoInput(video *VideoRecord, channel *ChannelRecord) VideoInput {
	var in VideoInput
	if video != nil {
		in.Title = video.Title
		in.Thumbnail = video.Thumbnails.VideoThumbnail()
		in.Duration = video.Duration
		in.Views = video.ViewCount
		in.PublishedAt = video.PublishedAt
	}
	if channel != nil {
		in.Channel.Title = channel.Title
		in.Channel.Thumbnail = channel.Thumbnails.ChannelThumbnail()
	}
	return in
}

// NewVideoMetadata normalizes a video and its channel into card content.
func NewVideoMetadata(video *VideoRecord, channel *ChannelRecord, now time.Time) VideoMetadata {
	return NewVideoInput(video, channel).Metadata(now)
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
