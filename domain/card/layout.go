package card

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"youtube-card/domain/model"
)

const (
	thumbnailAspect = 9.0 / 16.0
	mutedFade       = 0.4
	statsSeparator  = " · "
)

// Layout resolves the card into absolute geometry. anim is nil for a still image.
// Output depends only on the arguments.
func Layout(theme model.Theme, meta model.VideoMetadata, scale Scale, anim *Animation, m TextMeasurer) (*Document, error) {
	if scale.Factor() <= 0 {
		return nil, model.NewValidationError("invalid scale").Add("baseFactor", "must be a positive number")
	}
	if m == nil {
		return nil, errors.New("layout: nil text measurer")
	}
	theme.Normalize()

	motion := func(pick func(*Animation) Motion) Motion {
		if anim == nil {
			return rest
		}
		return pick(anim)
	}

	pad := scale.Padding(7.5)
	width := scale.Width()
	inner := width - 2*pad
	radius2 := scale.BorderRadius(2)

	l := &layouter{scale: scale, m: m}

	// thumbnail block
	thumbH := inner * thumbnailAspect
	thumbClip := &ClipShape{ID: "thumbnail-clip", X: pad, Y: pad, W: inner, H: thumbH, RX: math.Max(0, radius2)}
	thumbnail := &Group{ID: "thumbnail-group", Clip: thumbClip}
	thumbnail.Children = append(thumbnail.Children, &Image{ID: "thumbnail-image", X: pad, Y: pad, W: inner, H: thumbH, Href: meta.Thumbnail})

	if theme.Options.ShowDuration {
		thumbnail.Children = append(thumbnail.Children, l.durationBadge(theme, meta.Duration, pad+inner, pad+thumbH)...)
	}

	if theme.Options.ProgressBar != nil {
		percent := *theme.Options.ProgressBar
		if anim != nil && anim.ProgressBar != nil {
			percent = *anim.ProgressBar
		}
		percent = clamp(percent, 0, 100)
		barH := scale.N(4)
		barY := pad + thumbH - barH
		thumbnail.Children = append(thumbnail.Children,
			&Rect{ID: "progress-track", X: pad, Y: barY, W: inner, H: barH, Fill: theme.ProgressBar.Background},
			&Rect{ID: "progress-fill", X: pad, Y: barY, W: inner * percent / 100, H: barH, Fill: theme.ProgressBar.Foreground},
		)
	}
	applyMotion(thumbnail, motion(func(a *Animation) Motion { return a.Thumbnail }), scale)

	// details row
	rowY := pad + thumbH + scale.FontSize(0.6)
	gap := scale.FontSize(0.6)
	textX := pad
	avatarSize := scale.FontSize(2.6)

	channel := &Group{ID: "channel-group"}
	if theme.Options.ShowChannelThumbnail && avatarSize > 0 {
		clip := &ClipShape{ID: "avatar-clip", X: pad, Y: rowY, W: avatarSize, H: avatarSize, Circle: true}
		channel.Children = append(channel.Children, &Image{ID: "channel-thumbnail", X: pad, Y: rowY, W: avatarSize, H: avatarSize, Href: meta.Channel.Thumbnail, Clip: clip})
		textX = pad + avatarSize + gap
	}
	columnW := pad + inner - textX
	muted := model.FadeColor(theme.Card.Foreground, mutedFade)

	y := rowY
	title := &Group{ID: "title-group"}
	titleStyle := scale.Text(1)
	lines, h := l.paragraph("title", meta.Title, textX, y, columnW, titleStyle, theme.Card.Foreground)
	title.Children = lines
	y += h + scale.FontSize(0.35)
	applyMotion(title, motion(func(a *Animation) Motion { return a.Title }), scale)

	if theme.Options.ShowChannelTitle {
		style := scale.Text(0.875)
		style.Weight = 400
		lines, h := l.paragraph("channel-title", meta.Channel.Title, textX, y, columnW, style, muted)
		channel.Children = append(channel.Children, lines...)
		y += h
	}
	applyMotion(channel, motion(func(a *Animation) Motion { return a.Channel }), scale)

	stats := &Group{ID: "stats-group"}
	var parts []string
	if theme.Options.ShowViews {
		parts = append(parts, meta.Views)
	}
	if theme.Options.ShowPublishedAt {
		parts = append(parts, meta.PublishedAt)
	}
	if len(parts) > 0 {
		y += scale.FontSize(0.2)
		style := scale.Text(0.875)
		style.Weight = 400
		lines, h := l.paragraph("stats", strings.Join(parts, statsSeparator), textX, y, columnW, style, muted)
		stats.Children = lines
		y += h
	}
	applyMotion(stats, motion(func(a *Animation) Motion { return a.Stats }), scale)

	rowH := y - rowY
	if textX > pad {
		rowH = math.Max(rowH, avatarSize)
	}
	height := rowY + rowH + pad

	container := &Group{ID: "card"}
	container.Children = []Node{
		&Rect{ID: "card-background", X: 0, Y: 0, W: width, H: height, RX: radius2 + pad, Fill: theme.Card.Background},
		thumbnail, channel, title, stats,
	}
	applyMotion(container, motion(func(a *Animation) Motion { return a.Container }), scale)

	return &Document{Width: width, Height: height, Root: container}, nil
}

type layouter struct {
	scale Scale
	m     TextMeasurer
}

// durationBadge sits n(8) from the bottom-right corner (right, bottom) of the thumbnail.
func (l *layouter) durationBadge(theme model.Theme, text string, right, bottom float64) []Node {
	style := l.scale.Text(0.75)
	pad := l.scale.FontSize(0.2)
	inset := l.scale.N(8)
	textW := l.m.Advance(text, style.FontSize, style.Weight)
	w := textW + 2*pad
	h := style.LineHeight + 2*pad
	x := right - inset - w
	y := bottom - inset - h
	return []Node{
		&Rect{ID: "duration-badge", X: x, Y: y, W: w, H: h, RX: math.Max(0, l.scale.BorderRadius(2)-inset), Fill: theme.Duration.Background},
		&Text{ID: "duration", X: x + pad, Y: y + pad + l.baseline(style), Content: text, FontSize: style.FontSize, Weight: style.Weight, Fill: theme.Duration.Foreground},
	}
}

// paragraph wraps text into lines starting at top and returns them with the block height.
func (l *layouter) paragraph(id, text string, x, top, width float64, style TextStyle, fill string) ([]Node, float64) {
	lines := Wrap(l.m, text, style.FontSize, style.Weight, width)
	nodes := make([]Node, 0, len(lines))
	for i, line := range lines {
		lineID := id
		if i > 0 {
			lineID = id + "-" + strconv.Itoa(i)
		}
		nodes = append(nodes, &Text{
			ID:       lineID,
			X:        x,
			Y:        top + float64(i)*style.LineHeight + l.baseline(style),
			Content:  line,
			FontSize: style.FontSize,
			Weight:   style.Weight,
			Fill:     fill,
		})
	}
	return nodes, float64(len(lines)) * style.LineHeight
}

// baseline is the distance from the top of a line box to the text baseline.
func (l *layouter) baseline(style TextStyle) float64 {
	ascent, descent := l.m.Metrics(style.FontSize, style.Weight)
	return (style.LineHeight-(ascent+descent))/2 + ascent
}

func applyMotion(g *Group, mo Motion, scale Scale) {
	g.Opacity = clamp(mo.Opacity, 0, 1)
	g.TranslateY = scale.N(mo.OffsetY)
}
