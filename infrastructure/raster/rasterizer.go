package raster

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"math"
	"strings"

	"youtube-card/domain/model"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxCanvasSide = 8192
	// placeholderColor fills image boxes whose source cannot be decoded.
	placeholderColor = "#e5e5e5"
)

// Rasterizer paints card SVG documents. It is not safe for concurrent use; the pool
// gives each worker its own.
type Rasterizer struct {
	faces *faceCache
}

func NewRasterizer(fonts *Fonts) *Rasterizer {
	return &Rasterizer{faces: newFaceCache(fonts)}
}

// Close releases the sized faces.
func (r *Rasterizer) Close() { r.faces.close() }

// Render paints svg at the given pixel width; the height follows the document aspect ratio.
func (r *Rasterizer) Render(svg []byte, width int) (*model.RasterImage, error) {
	root, clips, err := parseSVG(svg)
	if err != nil {
		return nil, err
	}
	docW := root.number("width")
	docH := root.number("height")
	if docW <= 0 || docH <= 0 {
		return nil, errors.New("rasterize: document has no size")
	}
	if width <= 0 {
		width = int(math.Round(docW))
	}
	k := float64(width) / docW
	height := int(math.Ceil(docH*k - 1e-9))
	if width > maxCanvasSide || height > maxCanvasSide {
		return nil, model.NewValidationError("image too large").Add("width", fmt.Sprintf("canvas %dx%d exceeds %d", width, height, maxCanvasSide))
	}

	p := &painter{dc: gg.NewContext(width, height), k: k, clips: clips, faces: r.faces, images: map[string]image.Image{}}
	for _, child := range root.children {
		if err := p.paint(child, 1); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, p.dc.Image()); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return &model.RasterImage{PNG: buf.Bytes(), Width: width, Height: height}, nil
}

type painter struct {
	dc     *gg.Context
	k      float64
	clips  map[string]*element
	faces  *faceCache
	images map[string]image.Image
}

// paint draws el with the inherited opacity. Group opacity is applied to each child,
// which matches SVG exactly wherever children do not overlap.
func (p *painter) paint(el *element, opacity float64) error {
	switch el.name {
	case "defs", "clipPath":
		return nil
	case "g":
		p.dc.Push()
		defer p.dc.Pop()
		_, ty := translate(el.attr("transform"))
		p.dc.Translate(0, ty*p.k)
		p.applyClip(el.attr("clip-path"))
		opacity *= clampUnit(el.numberOr("opacity", 1))
		for _, child := range el.children {
			if err := p.paint(child, opacity); err != nil {
				return err
			}
		}
	case "rect":
		c, ok := p.fill(el, opacity)
		if !ok {
			return nil
		}
		p.dc.SetColor(c)
		p.roundedRect(el.number("x"), el.number("y"), el.number("width"), el.number("height"), el.number("rx"))
		p.dc.Fill()
	case "text":
		c, ok := p.fill(el, opacity)
		if !ok {
			return nil
		}
		face, err := p.faces.face(el.number("font-size")*p.k, int(el.numberOr("font-weight", 400)))
		if err != nil {
			return err
		}
		p.dc.SetFontFace(face)
		p.dc.SetColor(c)
		p.dc.DrawString(el.text.String(), el.number("x")*p.k, el.number("y")*p.k)
	case "image":
		p.dc.Push()
		defer p.dc.Pop()
		p.applyClip(el.attr("clip-path"))
		p.image(el, opacity)
	}
	return nil
}

func (p *painter) applyClip(ref string) {
	id := clipRef(ref)
	if id == "" {
		return
	}
	clip, ok := p.clips[id]
	if !ok || len(clip.children) == 0 {
		return
	}
	shape := clip.children[0]
	switch shape.name {
	case "circle":
		p.dc.DrawCircle(shape.number("cx")*p.k, shape.number("cy")*p.k, shape.number("r")*p.k)
	case "rect":
		p.roundedRect(shape.number("x"), shape.number("y"), shape.number("width"), shape.number("height"), shape.number("rx"))
	default:
		return
	}
	p.dc.Clip()
}

func (p *painter) roundedRect(x, y, w, h, rx float64) {
	rx = math.Max(0, math.Min(rx, math.Min(w, h)/2))
	if rx == 0 {
		p.dc.DrawRectangle(x*p.k, y*p.k, w*p.k, h*p.k)
		return
	}
	p.dc.DrawRoundedRectangle(x*p.k, y*p.k, w*p.k, h*p.k, rx*p.k)
}

// fill resolves fill and fill-opacity. A fully transparent fill paints nothing.
func (p *painter) fill(el *element, opacity float64) (color.NRGBA, bool) {
	value := el.attr("fill")
	if value == "" || value == "none" {
		return color.NRGBA{}, false
	}
	c, err := model.ParseColor(value)
	if err != nil {
		return color.NRGBA{}, false
	}
	alpha := float64(c.A) / 255 * clampUnit(el.numberOr("fill-opacity", 1)) * opacity
	c.A = uint8(math.Round(alpha * 255))
	return c, c.A > 0
}

// image draws a data: URI scaled to cover its box, centered, like preserveAspectRatio="xMidYMid slice".
func (p *painter) image(el *element, opacity float64) {
	x, y := el.number("x"), el.number("y")
	w, h := el.number("width"), el.number("height")
	dw, dh := int(math.Round(w*p.k)), int(math.Round(h*p.k))
	if dw <= 0 || dh <= 0 || opacity <= 0 {
		return
	}

	src, err := p.decode(el.attr("href"))
	if err != nil {
		c, _ := model.ParseColor(placeholderColor)
		c.A = uint8(math.Round(255 * opacity))
		p.dc.SetColor(c)
		p.dc.DrawRectangle(x*p.k, y*p.k, w*p.k, h*p.k)
		p.dc.Fill()
		return
	}

	b := src.Bounds()
	scale := math.Max(float64(dw)/float64(b.Dx()), float64(dh)/float64(b.Dy()))
	cropW := float64(dw) / scale
	cropH := float64(dh) / scale
	x0 := b.Min.X + int(math.Round((float64(b.Dx())-cropW)/2))
	y0 := b.Min.Y + int(math.Round((float64(b.Dy())-cropH)/2))
	crop := image.Rect(x0, y0, x0+int(math.Round(cropW)), y0+int(math.Round(cropH))).Intersect(b)

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	if opacity < 1 {
		faded := image.NewNRGBA(dst.Bounds())
		draw.DrawMask(faded, faded.Bounds(), dst, image.Point{}, image.NewUniform(color.Alpha{A: uint8(math.Round(255 * opacity))}), image.Point{}, draw.Src)
		dst = faded
	}
	p.dc.DrawImage(dst, int(math.Round(x*p.k)), int(math.Round(y*p.k)))
}

// decode reads a base64 data: URI. Remote hrefs are resolved before layout, so anything else is an error.
func (p *painter) decode(href string) (image.Image, error) {
	if img, ok := p.images[href]; ok {
		return img, nil
	}
	if !strings.HasPrefix(href, "data:") {
		return nil, fmt.Errorf("image href is not a data uri")
	}
	meta, payload, found := strings.Cut(href[len("data:"):], ",")
	if !found || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("image data uri is not base64")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode image: empty")
	}
	p.images[href] = img
	return img, nil
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 1
	}
	return math.Min(1, math.Max(0, v))
}
