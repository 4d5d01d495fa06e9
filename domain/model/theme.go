package model

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// CardStyle holds the card multipliers (0..2, neutral 1) and colors.
type CardStyle struct {
	FontSize     float64 `json:"fontSize"`
	Foreground   string  `json:"foreground"`
	Background   string  `json:"background"`
	Spacing      float64 `json:"spacing"`
	BorderRadius float64 `json:"borderRadius"`
}

type ColorPair struct {
	Foreground string `json:"foreground"`
	Background string `json:"background"`
}

type ThemeOptions struct {
	ShowDuration         bool     `json:"showDuration"`
	ShowViews            bool     `json:"showViews"`
	ShowPublishedAt      bool     `json:"showPublishedAt"`
	ShowChannelThumbnail bool     `json:"showChannelThumbnail"`
	ShowChannelTitle     bool     `json:"showChannelTitle"`
	ProgressBar          *float64 `json:"progressBar,omitempty"`
}

// Theme is the full card appearance. It is always a complete value: callers decode onto DefaultTheme.
type Theme struct {
	Card        CardStyle    `json:"card"`
	Duration    ColorPair    `json:"duration"`
	ProgressBar ColorPair    `json:"progressBar"`
	Options     ThemeOptions `json:"options"`
}

func DefaultTheme() Theme {
	return Theme{
		Card: CardStyle{
			FontSize:     1,
			Foreground:   "#0f0f0f",
			Background:   "#ffffff",
			Spacing:      1,
			BorderRadius: 1,
		},
		Duration:    ColorPair{Foreground: "#ffffff", Background: "#2a2a2a"},
		ProgressBar: ColorPair{Foreground: "#ff0000", Background: "#c8c8c899"},
		Options: ThemeOptions{
			ShowDuration:         true,
			ShowViews:            true,
			ShowPublishedAt:      true,
			ShowChannelThumbnail: true,
			ShowChannelTitle:     true,
		},
	}
}

func DarkTheme() Theme {
	t := DefaultTheme()
	t.Card.Foreground = "#f1f1f1"
	t.Card.Background = "#0f0f0f"
	t.Duration.Background = "#000000cc"
	return t
}

// ThemeByName resolves a preset name; unknown names get the light theme.
func ThemeByName(name string) Theme {
	if strings.EqualFold(name, "dark") {
		return DarkTheme()
	}
	return DefaultTheme()
}

// Normalize fills empty colors from the light preset.
func (t *Theme) Normalize() {
	def := DefaultTheme()
	fill := func(dst *string, src string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = src
		}
	}
	fill(&t.Card.Foreground, def.Card.Foreground)
	fill(&t.Card.Background, def.Card.Background)
	fill(&t.Duration.Foreground, def.Duration.Foreground)
	fill(&t.Duration.Background, def.Duration.Background)
	fill(&t.ProgressBar.Foreground, def.ProgressBar.Foreground)
	fill(&t.ProgressBar.Background, def.ProgressBar.Background)
}

// Validate checks every field and reports all problems at once.
func (t Theme) Validate() error {
	verr := NewValidationError("invalid theme")
	multiplier := func(field string, v float64) {
		if math.IsNaN(v) || v < 0 || v > 2 {
			verr.Add(field, "must be between 0 and 2")
		}
	}
	multiplier("card.fontSize", t.Card.FontSize)
	multiplier("card.spacing", t.Card.Spacing)
	multiplier("card.borderRadius", t.Card.BorderRadius)

	colors := map[string]string{
		"card.foreground":        t.Card.Foreground,
		"card.background":        t.Card.Background,
		"duration.foreground":    t.Duration.Foreground,
		"duration.background":    t.Duration.Background,
		"progressBar.foreground": t.ProgressBar.Foreground,
		"progressBar.background": t.ProgressBar.Background,
	}
	for field, value := range colors {
		if _, err := ParseColor(value); err != nil {
			verr.Add(field, err.Error())
		}
	}

	if p := t.Options.ProgressBar; p != nil && (math.IsNaN(*p) || *p < 0 || *p > 100) {
		verr.Add("options.progressBar", "must be between 0 and 100")
	}
	return verr.OrNil()
}

// ParseColor accepts #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(r,g,b), rgba(r,g,b,a) and "transparent".
func ParseColor(value string) (color.NRGBA, error) {
	s := strings.ToLower(strings.TrimSpace(value))
	switch {
	case s == "transparent":
		return color.NRGBA{}, nil
	case strings.HasPrefix(s, "#"):
		return parseHexColor(s[1:])
	case strings.HasPrefix(s, "rgb"):
		return parseFunctionalColor(s)
	}
	return color.NRGBA{}, fmt.Errorf("unsupported color %q", value)
}

func parseHexColor(hex string) (color.NRGBA, error) {
	switch len(hex) {
	case 3, 4:
		expanded := make([]byte, 0, len(hex)*2)
		for i := 0; i < len(hex); i++ {
			expanded = append(expanded, hex[i], hex[i])
		}
		hex = string(expanded)
	case 6, 8:
	default:
		return color.NRGBA{}, fmt.Errorf("malformed hex color #%s", hex)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("malformed hex color #%s", hex)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func parseFunctionalColor(s string) (color.NRGBA, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return color.NRGBA{}, fmt.Errorf("malformed color %q", s)
	}
	parts := strings.Split(s[open+1:len(s)-1], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, fmt.Errorf("malformed color %q", s)
	}
	var channels [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil || n < 0 || n > 255 {
			return color.NRGBA{}, fmt.Errorf("malformed color %q", s)
		}
		channels[i] = uint8(math.Round(n))
	}
	alpha := uint8(255)
	if len(parts) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return color.NRGBA{}, fmt.Errorf("malformed color %q", s)
		}
		alpha = uint8(math.Round(a * 255))
	}
	return color.NRGBA{R: channels[0], G: channels[1], B: channels[2], A: alpha}, nil
}

// FadeColor lowers the alpha by ratio (0.4 keeps 60% of the opacity) and returns it as #rrggbbaa.
func FadeColor(value string, ratio float64) string {
	c, err := ParseColor(value)
	if err != nil {
		return value
	}
	c.A = uint8(math.Round(float64(c.A) * (1 - ratio)))
	return HexColor(c)
}

func HexColor(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
