package model

import (
	"fmt"
	"strings"
)

// ResourceKind is the namespace a provider record is cached under.
type ResourceKind string

const (
	ResourceVideo   ResourceKind = "video"
	ResourceChannel ResourceKind = "channel"
	// ResourceRender is only used to report unknown render jobs; it has no cache namespace.
	ResourceRender ResourceKind = "render"
)

// Parts is the field set requested from the provider for a kind. It is part of the cache key.
func (k ResourceKind) Parts() []string {
	switch k {
	case ResourceVideo:
		return []string{"snippet", "statistics", "contentDetails"}
	case ResourceChannel:
		return []string{"snippet"}
	}
	return nil
}

func (k ResourceKind) Valid() bool {
	return k == ResourceVideo || k == ResourceChannel
}

// CacheKey builds "<kind>(<parts>):<id>". Changing it orphans every stored entry.
func (k ResourceKind) CacheKey(id string) string {
	return fmt.Sprintf("%s(%s):%s", k, strings.Join(k.Parts(), ","), id)
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int64  `json:"width,omitempty"`
	Height int64  `json:"height,omitempty"`
}

type Thumbnails struct {
	Default  *Thumbnail `json:"default,omitempty"`
	Medium   *Thumbnail `json:"medium,omitempty"`
	High     *Thumbnail `json:"high,omitempty"`
	Standard *Thumbnail `json:"standard,omitempty"`
	Maxres   *Thumbnail `json:"maxres,omitempty"`
}

// VideoThumbnail picks maxres, then high, medium and default.
func (t Thumbnails) VideoThumbnail() string {
	return firstURL(t.Maxres, t.High, t.Medium, t.Default)
}

// ChannelThumbnail picks high, then medium and default.
func (t Thumbnails) ChannelThumbnail() string {
	return firstURL(t.High, t.Medium, t.Default)
}

func firstURL(candidates ...*Thumbnail) string {
	for _, c := range candidates {
		if c != nil && c.URL != "" {
			return c.URL
		}
	}
	return ""
}

// VideoRecord is the provider payload for a video, stored as-is in the metadata cache.
type VideoRecord struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	ChannelID    string     `json:"channelId"`
	ChannelTitle string     `json:"channelTitle,omitempty"`
	PublishedAt  string     `json:"publishedAt,omitempty"`
	Thumbnails   Thumbnails `json:"thumbnails"`
	Duration     string     `json:"duration,omitempty"`
	ViewCount    string     `json:"viewCount,omitempty"`
	LikeCount    string     `json:"likeCount,omitempty"`
}

// ChannelRecord is the provider payload for a channel.
type ChannelRecord struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	CustomURL  string     `json:"customUrl,omitempty"`
	Thumbnails Thumbnails `json:"thumbnails"`
}
