package model

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// nbsp separates a number from its compact unit, as fr-FR number formatting does.
const nbsp = "\u00a0"

var isoDurationPattern = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:[.,]\d+)?)S)?)?$`)

// ParseISODuration parses an ISO-8601 duration such as PT9M27S. Years and months count as 365 and 30 days.
func ParseISODuration(value string) (time.Duration, error) {
	m := isoDurationPattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(value)))
	if m == nil || value == "P" || strings.HasSuffix(value, "T") {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", value)
	}
	units := []time.Duration{365 * 24 * time.Hour, 30 * 24 * time.Hour, 7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute}
	var total time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", value, err)
		}
		total += time.Duration(n) * unit
	}
	if m[7] != "" {
		secs, err := strconv.ParseFloat(strings.Replace(m[7], ",", ".", 1), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", value, err)
		}
		total += time.Duration(secs * float64(time.Second))
	}
	return total, nil
}

// FormatDuration renders an ISO-8601 duration as mm:ss, or HH:mm:ss once it reaches an hour.
func FormatDuration(value string) (string, error) {
	d, err := ParseISODuration(value)
	if err != nil {
		return "", err
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds), nil
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds), nil
}

var compactUnits = []struct {
	size   float64
	suffix string
}{
	{1e12, "Bn"},
	{1e9, "Md"},
	{1e6, "M"},
	{1e3, "k"},
}

// FormatCompactFR formats a count in fr-FR short compact notation: 950, 1,5 k, 30 k, 1,2 M.
func FormatCompactFR(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	if value < 1000 {
		return sign + strconv.FormatFloat(math.Round(value), 'f', -1, 64)
	}
	for i, unit := range compactUnits {
		if value < unit.size {
			continue
		}
		scaled := value / unit.size
		rounded := roundCompact(scaled)
		// 999 950 rounds to 1 000 k, which reads as 1 M
		if rounded >= 1000 && i > 0 {
			unit = compactUnits[i-1]
			rounded = roundCompact(value / unit.size)
		}
		text := strconv.FormatFloat(rounded, 'f', -1, 64)
		return sign + strings.Replace(text, ".", ",", 1) + nbsp + unit.suffix
	}
	return sign + strconv.FormatFloat(value, 'f', 0, 64)
}

// roundCompact keeps one decimal below 10 and none above, matching two significant digits for small mantissas.
func roundCompact(v float64) float64 {
	if v < 10 {
		r := math.Round(v*10) / 10
		if r < 10 {
			return r
		}
	}
	return math.Round(v)
}

// FormatViews renders a provider view count ("30123") as "30 k vues". Unparseable counts render as zero.
func FormatViews(raw string) string {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		n = 0
	}
	return FormatCompactFR(n) + " vues"
}

const averageMonth = time.Duration(365.25 / 12 * 24 * float64(time.Hour))

// FormatRelativeFR renders t relative to now in French, with the thresholds of the usual "from now" scale.
func FormatRelativeFR(t, now time.Time) string {
	diff := now.Sub(t)
	future := diff < 0
	if future {
		diff = -diff
	}

	var phrase string
	seconds := math.Round(diff.Seconds())
	minutes := math.Round(diff.Minutes())
	hours := math.Round(diff.Hours())
	days := math.Round(diff.Hours() / 24)
	months := math.Round(float64(diff) / float64(averageMonth))
	years := math.Round(float64(diff) / float64(averageMonth) / 12)

	switch {
	case seconds <= 44:
		phrase = "quelques secondes"
	case seconds <= 89 || minutes <= 1:
		phrase = "une minute"
	case minutes <= 44:
		phrase = fmt.Sprintf("%d minutes", int64(minutes))
	case minutes <= 89 || hours <= 1:
		phrase = "une heure"
	case hours <= 21:
		phrase = fmt.Sprintf("%d heures", int64(hours))
	case hours <= 35 || days <= 1:
		phrase = "un jour"
	case days <= 25:
		phrase = fmt.Sprintf("%d jours", int64(days))
	case days <= 45 || months <= 1:
		phrase = "un mois"
	case months <= 10:
		phrase = fmt.Sprintf("%d mois", int64(months))
	case months <= 17 || years <= 1:
		phrase = "un an"
	default:
		phrase = fmt.Sprintf("%d ans", int64(years))
	}

	if future {
		return "dans " + phrase
	}
	return "il y a " + phrase
}
