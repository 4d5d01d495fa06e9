package youtube

import (
	"context"
	"errors"
	"fmt"
	"time"

	"youtube-card/domain/model"
	"youtube-card/domain/repository"
	"youtube-card/infrastructure/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// UnknownErrorMessage is reported when the provider fails without a readable message.
const UnknownErrorMessage = "Unknown error"

// Client reads public video and channel metadata from the YouTube Data API.
type Client struct {
	service *youtube.Service
	mode    string
}

// Config represents YouTube API configuration
type Config struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURL  string `json:"redirect_url"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	APIKey       string `json:"api_key"`
}

// NewYouTubeClient creates a metadata source. Extra options are appended after the
// credentials, so tests can point the client at a local endpoint.
func NewYouTubeClient(ctx context.Context, config *Config, opts ...option.ClientOption) (*Client, error) {
	if config == nil {
		return nil, errors.New("youtube client: nil config")
	}

	// Without a complete OAuth token pair, the API key is enough for public reads
	if (config.AccessToken == "" || config.RefreshToken == "") && config.APIKey != "" {
		service, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(config.APIKey)}, opts...)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create YouTube service with API key: %w", err)
		}
		return &Client{service: service, mode: "api_key"}, nil
	}
	if config.RefreshToken == "" {
		return nil, errors.New("youtube client: neither an API key nor an OAuth refresh token is configured")
	}

	oauth2Config := &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       []string{youtube.YoutubeReadonlyScope},
		Endpoint:     google.Endpoint,
	}
	token := &oauth2.Token{
		AccessToken:  config.AccessToken,
		RefreshToken: config.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-1 * time.Minute), // force refresh on first use
	}

	// ReuseTokenSource refreshes the access token whenever it is close to expiry
	tokenSource := oauth2.ReuseTokenSource(token, oauth2Config.TokenSource(ctx, token))
	service, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(tokenSource)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &Client{service: service, mode: "oauth"}, nil
}

var _ repository.IMetadataSource = (*Client)(nil)

// Mode reports how the client authenticates: api_key or oauth.
func (c *Client) Mode() string { return c.mode }

// FetchVideo returns (nil, nil) when the provider has no such video.
func (c *Client) FetchVideo(ctx context.Context, videoID string, parts []string) (*model.VideoRecord, error) {
	response, err := c.service.Videos.List(parts).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, upstreamError("videos.list", videoID, err)
	}
	if len(response.Items) == 0 {
		return nil, nil
	}
	video := convertToVideoRecord(response.Items[0])
	return &video, nil
}

// FetchChannel returns (nil, nil) when the provider has no such channel.
func (c *Client) FetchChannel(ctx context.Context, channelID string, parts []string) (*model.ChannelRecord, error) {
	response, err := c.service.Channels.List(parts).Id(channelID).Context(ctx).Do()
	if err != nil {
		return nil, upstreamError("channels.list", channelID, err)
	}
	if len(response.Items) == 0 {
		return nil, nil
	}
	channel := convertToChannelRecord(response.Items[0])
	return &channel, nil
}

// upstreamError keeps the provider's first reported message, the one shown to users.
func upstreamError(call, id string, err error) error {
	message := UnknownErrorMessage
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case len(apiErr.Errors) > 0 && apiErr.Errors[0].Message != "":
			message = apiErr.Errors[0].Message
		case apiErr.Message != "":
			message = apiErr.Message
		}
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"call":  call,
		"id":    id,
		"error": err,
	}).Warn("YouTube API call failed")
	return &model.UpstreamError{Message: message, Err: err}
}

func convertToVideoRecord(video *youtube.Video) model.VideoRecord {
	record := model.VideoRecord{ID: video.Id}
	if video.Snippet != nil {
		record.Title = video.Snippet.Title
		record.Description = video.Snippet.Description
		record.ChannelID = video.Snippet.ChannelId
		record.ChannelTitle = video.Snippet.ChannelTitle
		record.PublishedAt = video.Snippet.PublishedAt
		record.Thumbnails = convertThumbnails(video.Snippet.Thumbnails)
	}
	if video.ContentDetails != nil {
		record.Duration = video.ContentDetails.Duration
	}
	if video.Statistics != nil {
		record.ViewCount = fmt.Sprintf("%d", video.Statistics.ViewCount)
		record.LikeCount = fmt.Sprintf("%d", video.Statistics.LikeCount)
	}
	return record
}

func convertToChannelRecord(channel *youtube.Channel) model.ChannelRecord {
	record := model.ChannelRecord{ID: channel.Id}
	if channel.Snippet != nil {
		record.Title = channel.Snippet.Title
		record.CustomURL = channel.Snippet.CustomUrl
		record.Thumbnails = convertThumbnails(channel.Snippet.Thumbnails)
	}
	return record
}

func convertThumbnails(details *youtube.ThumbnailDetails) model.Thumbnails {
	if details == nil {
		return model.Thumbnails{}
	}
	return model.Thumbnails{
		Default:  convertThumbnail(details.Default),
		Medium:   convertThumbnail(details.Medium),
		High:     convertThumbnail(details.High),
		Standard: convertThumbnail(details.Standard),
		Maxres:   convertThumbnail(details.Maxres),
	}
}

func convertThumbnail(t *youtube.Thumbnail) *model.Thumbnail {
	if t == nil {
		return nil
	}
	return &model.Thumbnail{URL: t.Url, Width: t.Width, Height: t.Height}
}
