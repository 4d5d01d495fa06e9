package model_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"youtube-card/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		href   string
		want   string
		wantOK bool
	}{
		{"https://www.youtube.com/watch?v=XEO3duW1A80", "XEO3duW1A80", true},
		{"https://www.youtube.com/watch?feature=share&v=XEO3duW1A80&t=12", "XEO3duW1A80", true},
		{"https://youtu.be/abc123", "abc123", true},
		{"https://youtu.be/abc123/extra", "abc123", true},
		{"https://www.youtube.com/shorts/xyz", "xyz", true},
		{"https://youtube.com/live/live42?feature=shared", "live42", true},
		{"https://m.youtube.com/shorts/mobile1", "mobile1", true},
		{"https://www.youtube.com/channel/UC123", "", false},
		{"https://www.youtube.com/shorts/", "", false},
		{"https://youtu.be/", "", false},
		{"https://example.com/shorts/xyz", "", false},
		{"youtu.be/abc123", "", false},
		{"not a url", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.href, func(t *testing.T) {
			got, ok := model.ExtractVideoID(tc.href)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveVideoID(t *testing.T) {
	id, err := model.ResolveVideoID("direct", "https://youtu.be/ignored")
	require.NoError(t, err)
	assert.Equal(t, "direct", id)

	id, err = model.ResolveVideoID("", "https://youtu.be/abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	_, err = model.ResolveVideoID("", "https://example.com")
	assert.ErrorIs(t, err, model.ErrValidation)
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "videoUrl")
}

func TestFormatDuration(t *testing.T) {
	cases := map[string]string{
		"PT9M27S":   "09:27",
		"PT45S":     "00:45",
		"PT1H2M3S":  "01:02:03",
		"PT10H":     "10:00:00",
		"P1DT1H":    "25:00:00",
		"P0D":       "00:00",
		"PT3.9S":    "00:03",
		"pt2m":      "02:00",
		"PT59M59S":  "59:59",
		"PT60M":     "01:00:00",
		"PT12M5.5S": "12:05",
	}
	for in, want := range cases {
		got, err := model.FormatDuration(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "P", "PT", "9:27", "P1H"} {
		_, err := model.FormatDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatViews(t *testing.T) {
	nb := "\u00a0"
	cases := map[string]string{
		"0":          "0 vues",
		"999":        "999 vues",
		"1000":       "1" + nb + "k vues",
		"1500":       "1,5" + nb + "k vues",
		"30123":      "30" + nb + "k vues",
		"123456":     "123" + nb + "k vues",
		"999950":     "1" + nb + "M vues",
		"1234567":    "1,2" + nb + "M vues",
		"2500000000": "2,5" + nb + "Md vues",
		"abc":        "0 vues",
		"":           "0 vues",
	}
	for in, want := range cases {
		assert.Equal(t, want, model.FormatViews(in), in)
	}
}

func TestFormatRelativeFR(t *testing.T) {
	now := time.Date(2024, 8, 14, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "il y a quelques secondes"},
		{60 * time.Second, "il y a une minute"},
		{5 * time.Minute, "il y a 5 minutes"},
		{70 * time.Minute, "il y a une heure"},
		{3 * time.Hour, "il y a 3 heures"},
		{30 * time.Hour, "il y a un jour"},
		{3 * 24 * time.Hour, "il y a 3 jours"},
		{40 * 24 * time.Hour, "il y a un mois"},
		{120 * 24 * time.Hour, "il y a 4 mois"},
		{400 * 24 * time.Hour, "il y a un an"},
		{731 * 24 * time.Hour, "il y a 2 ans"},
		{-2 * time.Hour, "dans 2 heures"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, model.FormatRelativeFR(now.Add(-tc.ago), now))
		})
	}
}

func TestNewVideoMetadata(t *testing.T) {
	now := time.Date(2024, 8, 14, 9, 0, 23, 0, time.UTC)

	t.Run("defaults for missing records", func(t *testing.T) {
		meta := model.NewVideoMetadata(nil, nil, now)

		assert.Equal(t, model.DefaultTitle, meta.Title)
		assert.Equal(t, model.DefaultThumbnail, meta.Thumbnail)
		assert.Equal(t, "09:27", meta.Duration)
		assert.Equal(t, "0 vues", meta.Views)
		assert.Equal(t, "il y a 2 ans", meta.PublishedAt)
		assert.Equal(t, model.DefaultChannelTitle, meta.Channel.Title)
	})

	t.Run("thumbnail preference", func(t *testing.T) {
		video := &model.VideoRecord{
			Title:      "Talk",
			Duration:   "PT1H2M3S",
			ViewCount:  "30123",
			Thumbnails: model.Thumbnails{High: &model.Thumbnail{URL: "high.jpg"}, Default: &model.Thumbnail{URL: "default.jpg"}},
		}
		channel := &model.ChannelRecord{
			Title:      "Chan",
			Thumbnails: model.Thumbnails{Maxres: &model.Thumbnail{URL: "ignored.jpg"}, Medium: &model.Thumbnail{URL: "medium.jpg"}},
		}

		meta := model.NewVideoMetadata(video, channel, now)

		assert.Equal(t, "Talk", meta.Title)
		assert.Equal(t, "high.jpg", meta.Thumbnail)
		assert.Equal(t, "01:02:03", meta.Duration)
		assert.Equal(t, "medium.jpg", meta.Channel.Thumbnail)
		assert.Equal(t, "Chan", meta.Channel.Title)
	})

	t.Run("malformed duration falls back", func(t *testing.T) {
		meta := model.VideoInput{Duration: "nonsense", PublishedAt: "yesterday"}.Metadata(now)
		assert.Equal(t, "09:27", meta.Duration)
		assert.Equal(t, "il y a 2 ans", meta.PublishedAt)
	})
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "video(snippet,statistics,contentDetails):XEO3duW1A80", model.ResourceVideo.CacheKey("XEO3duW1A80"))
	assert.Equal(t, "channel(snippet):UC42", model.ResourceChannel.CacheKey("UC42"))
	assert.False(t, model.ResourceKind("playlist").Valid())
}

func TestThemeValidate(t *testing.T) {
	require.NoError(t, model.DefaultTheme().Validate())
	require.NoError(t, model.DarkTheme().Validate())

	theme := model.DefaultTheme()
	theme.Card.FontSize = 2.5
	theme.Card.Foreground = "blue-ish"
	over := 120.0
	theme.Options.ProgressBar = &over

	err := theme.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrValidation)

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)
	assert.Contains(t, verr.Fields, "card.fontSize")
	assert.Contains(t, verr.Fields, "card.foreground")
	assert.Contains(t, verr.Fields, "options.progressBar")
}

func TestThemeNormalize(t *testing.T) {
	theme := model.Theme{}
	theme.Normalize()

	def := model.DefaultTheme()
	assert.Equal(t, def.Card.Foreground, theme.Card.Foreground)
	assert.Equal(t, def.ProgressBar.Background, theme.ProgressBar.Background)
}

func TestParseColor(t *testing.T) {
	c, err := model.ParseColor("#c8c8c899")
	require.NoError(t, err)
	assert.Equal(t, uint8(0xc8), c.R)
	assert.Equal(t, uint8(0x99), c.A)

	c, err = model.ParseColor("#fff")
	require.NoError(t, err)
	assert.Equal(t, uint8(255), c.A)
	assert.Equal(t, uint8(255), c.G)

	c, err = model.ParseColor("rgba(200, 200, 200, 0.6)")
	require.NoError(t, err)
	assert.Equal(t, uint8(153), c.A)

	_, err = model.ParseColor("#12345")
	assert.Error(t, err)

	assert.Equal(t, "#0f0f0f99", model.FadeColor("#0f0f0f", 0.4))
}

func TestRenderJobApply(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	job := model.NewRenderJob("r1", "bucket", "card", "Talk", start)

	assert.Equal(t, model.MinDisplayedProgress, job.DisplayProgress())

	require.NoError(t, job.Apply(model.RenderSnapshot{OverallProgress: 0.5}, start.Add(time.Second)))
	assert.Equal(t, model.RenderInProgress, job.Status)
	assert.Equal(t, 0.5, job.DisplayProgress())

	require.NoError(t, job.Apply(model.RenderSnapshot{OverallProgress: 0.2}, start.Add(2*time.Second)))
	assert.Equal(t, 0.5, job.Progress, "progress never goes back")

	require.NoError(t, job.Apply(model.RenderSnapshot{Done: true, OutputURL: "https://out/r1.webm", OutputSize: 42}, start.Add(3*time.Second)))
	assert.Equal(t, model.RenderDone, job.Status)
	assert.Equal(t, int64(42), job.OutputSize)

	err := job.Apply(model.RenderSnapshot{Fatal: true, ErrorMessage: "late"}, start.Add(4*time.Second))
	assert.ErrorIs(t, err, model.ErrTerminalJob)
	assert.Equal(t, model.RenderDone, job.Status)
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{&model.NotFoundError{Kind: model.ResourceVideo}, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", &model.RateLimitError{Limit: 5, Window: 10 * time.Second}), http.StatusTooManyRequests},
		{&model.UpstreamError{Message: "quota"}, http.StatusBadGateway},
		{&model.WorkerUnavailableError{Reason: "queue full"}, http.StatusServiceUnavailable},
		{model.NewValidationError("bad").Add("x", "y"), http.StatusBadRequest},
		{errors.New("redis down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, model.HTTPStatus(tc.err))
	}
}

func TestRateLimitErrorMessage(t *testing.T) {
	err := &model.RateLimitError{Limit: 5, Window: 10 * time.Second}
	assert.Equal(t, "rate limit exceeded: 5 requests per 10s", err.Error())
	assert.Equal(t, "24h", model.FormatWindow(24*time.Hour))
}
