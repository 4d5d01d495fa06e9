package dto

import (
	"encoding/json"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"youtube-card/domain/model"

	"github.com/google/go-querystring/query"
)

// CardQuery is the query string of GET /api/card/youtube/video, in the nested
// bracket form: videoUrl=...&theme[card][fontSize]=1.2&theme[options][showViews]=false
type CardQuery struct {
	VideoURL string     `url:"videoUrl,omitempty"`
	Theme    ThemeQuery `url:"theme"`
}

type ThemeQuery struct {
	Card        CardStyleQuery `url:"card" json:"card"`
	Duration    ColorPairQuery `url:"duration" json:"duration"`
	ProgressBar ColorPairQuery `url:"progressBar" json:"progressBar"`
	Options     OptionsQuery   `url:"options" json:"options"`
}

type CardStyleQuery struct {
	FontSize     *float64 `url:"fontSize,omitempty" json:"fontSize,omitempty"`
	Foreground   string   `url:"foreground,omitempty" json:"foreground,omitempty"`
	Background   string   `url:"background,omitempty" json:"background,omitempty"`
	Spacing      *float64 `url:"spacing,omitempty" json:"spacing,omitempty"`
	BorderRadius *float64 `url:"borderRadius,omitempty" json:"borderRadius,omitempty"`
}

type ColorPairQuery struct {
	Foreground string `url:"foreground,omitempty" json:"foreground,omitempty"`
	Background string `url:"background,omitempty" json:"background,omitempty"`
}

type OptionsQuery struct {
	ShowDuration         *bool    `url:"showDuration,omitempty" json:"showDuration,omitempty"`
	ShowViews            *bool    `url:"showViews,omitempty" json:"showViews,omitempty"`
	ShowPublishedAt      *bool    `url:"showPublishedAt,omitempty" json:"showPublishedAt,omitempty"`
	ShowChannelThumbnail *bool    `url:"showChannelThumbnail,omitempty" json:"showChannelThumbnail,omitempty"`
	ShowChannelTitle     *bool    `url:"showChannelTitle,omitempty" json:"showChannelTitle,omitempty"`
	ProgressBar          *float64 `url:"progressBar,omitempty" json:"progressBar,omitempty"`
}

// NewCardQuery describes a full theme, so the link renders the same card whatever the server defaults are.
func NewCardQuery(videoURL string, theme model.Theme) CardQuery {
	f := func(v float64) *float64 { return &v }
	b := func(v bool) *bool { return &v }
	return CardQuery{
		VideoURL: videoURL,
		Theme: ThemeQuery{
			Card: CardStyleQuery{
				FontSize:     f(theme.Card.FontSize),
				Foreground:   theme.Card.Foreground,
				Background:   theme.Card.Background,
				Spacing:      f(theme.Card.Spacing),
				BorderRadius: f(theme.Card.BorderRadius),
			},
			Duration:    ColorPairQuery(theme.Duration),
			ProgressBar: ColorPairQuery(theme.ProgressBar),
			Options: OptionsQuery{
				ShowDuration:         b(theme.Options.ShowDuration),
				ShowViews:            b(theme.Options.ShowViews),
				ShowPublishedAt:      b(theme.Options.ShowPublishedAt),
				ShowChannelThumbnail: b(theme.Options.ShowChannelThumbnail),
				ShowChannelTitle:     b(theme.Options.ShowChannelTitle),
				ProgressBar:          theme.Options.ProgressBar,
			},
		},
	}
}

// Encode renders the query string.
func (q CardQuery) Encode() (string, error) {
	values, err := query.Values(q)
	if err != nil {
		return "", err
	}
	return values.Encode(), nil
}

// ParseCardQuery reads the nested bracket form and merges the theme onto the light preset.
// Scalar values are typed the way they look: true/false become booleans and numbers become numbers.
func ParseCardQuery(values url.Values) (string, model.Theme, error) {
	tree := map[string]interface{}{}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := splitBracketKey(key)
		if len(path) < 2 || path[0] != "theme" {
			continue
		}
		insert(tree, path[1:], typedValue(values.Get(key)))
	}

	theme := model.DefaultTheme()
	raw, err := json.Marshal(tree)
	if err != nil {
		return "", theme, err
	}
	if err := json.Unmarshal(raw, &theme); err != nil {
		return "", theme, model.NewValidationError("invalid theme").Add("theme", err.Error())
	}
	return values.Get("videoUrl"), theme, nil
}

// splitBracketKey turns a[b][c] into [a b c].
func splitBracketKey(key string) []string {
	head, rest, found := strings.Cut(key, "[")
	if !found {
		return []string{key}
	}
	parts := []string{head}
	for _, seg := range strings.Split(strings.TrimSuffix(rest, "]"), "][") {
		parts = append(parts, seg)
	}
	return parts
}

func insert(tree map[string]interface{}, path []string, value interface{}) {
	for _, seg := range path[:len(path)-1] {
		child, ok := tree[seg].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			tree[seg] = child
		}
		tree = child
	}
	tree[path[len(path)-1]] = value
}

func typedValue(s string) interface{} {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}
