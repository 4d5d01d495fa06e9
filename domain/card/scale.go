package card

import (
	"math"
	"strconv"

	"youtube-card/domain/model"
)

const (
	// PreviewFactor is used for in-browser previews, ExportFactor for downloadable PNGs.
	PreviewFactor = 1.0
	ExportFactor  = 6.0

	designWidth = 450
)

// TextStyle is the resolved typography for a relative text size.
type TextStyle struct {
	FontSize   float64
	LineHeight float64
	Weight     int
}

// Scale turns design units into pixels for one theme and base factor.
// Every metric is linear in the base factor.
type Scale struct {
	card   model.CardStyle
	factor float64
}

func NewScale(theme model.Theme, baseFactor float64) (Scale, error) {
	if math.IsNaN(baseFactor) || math.IsInf(baseFactor, 0) || baseFactor <= 0 {
		return Scale{}, model.NewValidationError("invalid scale").Add("baseFactor", "must be a positive number")
	}
	return Scale{card: theme.Card, factor: baseFactor}, nil
}

func (s Scale) Factor() float64 { return s.factor }

// N converts design units to pixels.
func (s Scale) N(x float64) float64 { return x * s.factor }

// Px is N formatted as a CSS pixel length.
func (s Scale) Px(x float64) string { return formatNumber(s.N(x)) + "px" }

func (s Scale) Width() float64 { return s.N(designWidth) }

func (s Scale) FontSize(f float64) float64 { return s.N(16*f) * s.card.FontSize }

func (s Scale) LineHeight(f float64) float64 { return s.FontSize(f) * 1.2 }

func (s Scale) Padding(f float64) float64 { return s.N(4*f) * s.card.Spacing }

func (s Scale) BorderRadius(f float64) float64 { return s.N(6*f) * s.card.BorderRadius }

// Text is the medium-weight text style at relative size f.
func (s Scale) Text(f float64) TextStyle {
	return TextStyle{FontSize: s.FontSize(f), LineHeight: s.LineHeight(f), Weight: 500}
}

// formatNumber prints at most three decimals and never "-0".
func formatNumber(v float64) string {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
