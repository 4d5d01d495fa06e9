package card

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TextMeasurer reports font metrics so text can be wrapped and boxes sized.
// The raster package implements it with the fonts it paints with.
type TextMeasurer interface {
	Advance(text string, size float64, weight int) float64
	Metrics(size float64, weight int) (ascent, descent float64)
}

// EstimateMeasurer approximates metrics from average glyph widths. It is enough for previews and tests.
type EstimateMeasurer struct{}

func (EstimateMeasurer) Advance(text string, size float64, weight int) float64 {
	per := 0.52
	if weight >= 500 {
		per = 0.55
	}
	return float64(utf8.RuneCountInString(text)) * size * per
}

func (EstimateMeasurer) Metrics(size float64, _ int) (float64, float64) {
	return size * 0.93, size * 0.24
}

// breakable reports whether r separates words. No-break spaces keep a number with its unit.
func breakable(r rune) bool {
	return r != '\u00a0' && r != '\u202f' && unicode.IsSpace(r)
}

// Wrap breaks text into lines no wider than width. Words wider than a line are split by rune.
func Wrap(m TextMeasurer, text string, size float64, weight int, width float64) []string {
	words := strings.FieldsFunc(text, breakable)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if m.Advance(candidate, size, weight) <= width {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		for utf8.RuneCountInString(word) > 1 && m.Advance(word, size, weight) > width {
			head, tail := splitToWidth(m, word, size, weight, width)
			lines = append(lines, head)
			word = tail
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// splitToWidth returns the longest prefix that fits, always at least one rune.
func splitToWidth(m TextMeasurer, word string, size float64, weight int, width float64) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && m.Advance(string(runes[:n+1]), size, weight) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}
