package card

import (
	"bytes"
	"encoding/xml"
	"strconv"

	"youtube-card/domain/model"
)

const (
	svgNamespace = "http://www.w3.org/2000/svg"
	// FontFamily names the face the rasterizer resolves; weights 400 and 500 are available.
	FontFamily = "Go"
)

// SVG serializes the document. Attribute order and number formatting are fixed, so equal documents give equal bytes.
func (d *Document) SVG() []byte {
	var b bytes.Buffer
	w, h := formatNumber(d.Width), formatNumber(d.Height)
	b.WriteString(`<svg xmlns="` + svgNamespace + `" width="` + w + `" height="` + h + `" viewBox="0 0 ` + w + ` ` + h + `">`)

	clips := collectClips(d.Root, nil)
	if len(clips) > 0 {
		b.WriteString("<defs>")
		for _, c := range clips {
			writeClip(&b, c)
		}
		b.WriteString("</defs>")
	}
	if d.Root != nil {
		writeNode(&b, d.Root)
	}
	b.WriteString("</svg>")
	return b.Bytes()
}

func collectClips(n Node, acc []*ClipShape) []*ClipShape {
	switch v := n.(type) {
	case *Group:
		if v.Clip != nil {
			acc = append(acc, v.Clip)
		}
		for _, c := range v.Children {
			acc = collectClips(c, acc)
		}
	case *Image:
		if v.Clip != nil {
			acc = append(acc, v.Clip)
		}
	}
	return acc
}

func writeClip(b *bytes.Buffer, c *ClipShape) {
	b.WriteString(`<clipPath id="` + attr(c.ID) + `">`)
	if c.Circle {
		r := c.W / 2
		b.WriteString(`<circle cx="` + formatNumber(c.X+r) + `" cy="` + formatNumber(c.Y+r) + `" r="` + formatNumber(r) + `"/>`)
	} else {
		b.WriteString(`<rect x="` + formatNumber(c.X) + `" y="` + formatNumber(c.Y) + `" width="` + formatNumber(c.W) +
			`" height="` + formatNumber(c.H) + `" rx="` + formatNumber(c.RX) + `"/>`)
	}
	b.WriteString("</clipPath>")
}

func writeNode(b *bytes.Buffer, n Node) {
	switch v := n.(type) {
	case *Group:
		b.WriteString(`<g id="` + attr(v.ID) + `"`)
		if v.Opacity != 1 {
			b.WriteString(` opacity="` + formatNumber(v.Opacity) + `"`)
		}
		if v.TranslateY != 0 {
			b.WriteString(` transform="translate(0 ` + formatNumber(v.TranslateY) + `)"`)
		}
		if v.Clip != nil {
			b.WriteString(` clip-path="url(#` + attr(v.Clip.ID) + `)"`)
		}
		b.WriteString(">")
		for _, c := range v.Children {
			writeNode(b, c)
		}
		b.WriteString("</g>")
	case *Rect:
		b.WriteString(`<rect id="` + attr(v.ID) + `" x="` + formatNumber(v.X) + `" y="` + formatNumber(v.Y) +
			`" width="` + formatNumber(v.W) + `" height="` + formatNumber(v.H) + `"`)
		if v.RX > 0 {
			b.WriteString(` rx="` + formatNumber(v.RX) + `"`)
		}
		writeFill(b, v.Fill)
		b.WriteString("/>")
	case *Image:
		b.WriteString(`<image id="` + attr(v.ID) + `" x="` + formatNumber(v.X) + `" y="` + formatNumber(v.Y) +
			`" width="` + formatNumber(v.W) + `" height="` + formatNumber(v.H) + `" preserveAspectRatio="xMidYMid slice"`)
		if v.Clip != nil {
			b.WriteString(` clip-path="url(#` + attr(v.Clip.ID) + `)"`)
		}
		b.WriteString(` href="` + attr(v.Href) + `"/>`)
	case *Text:
		b.WriteString(`<text id="` + attr(v.ID) + `" x="` + formatNumber(v.X) + `" y="` + formatNumber(v.Y) +
			`" font-family="` + FontFamily + `" font-size="` + formatNumber(v.FontSize) + `" font-weight="` + strconv.Itoa(v.Weight) + `"`)
		writeFill(b, v.Fill)
		b.WriteString(` xml:space="preserve">`)
		_ = xml.EscapeText(b, []byte(v.Content))
		b.WriteString("</text>")
	}
}

// writeFill splits #rrggbbaa into fill and fill-opacity, which every SVG consumer understands.
func writeFill(b *bytes.Buffer, value string) {
	c, err := model.ParseColor(value)
	if err != nil {
		b.WriteString(` fill="` + attr(value) + `"`)
		return
	}
	alpha := c.A
	c.A = 255
	b.WriteString(` fill="` + model.HexColor(c) + `"`)
	if alpha != 255 {
		b.WriteString(` fill-opacity="` + formatNumber(float64(alpha)/255) + `"`)
	}
}

func attr(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
