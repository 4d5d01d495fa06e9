package raster

import (
	"fmt"
	"math"
	"sync"

	"youtube-card/domain/card"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Fonts holds the parsed faces. Parsed fonts are read-only and shared by every worker;
// sized faces are not safe for concurrent use, so each user keeps its own faceCache.
type Fonts struct {
	regular *opentype.Font
	medium  *opentype.Font
}

// LoadFonts parses the embedded Go fonts, regular for weight 400 and medium for 500.
func LoadFonts() (*Fonts, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	medium, err := opentype.Parse(gomedium.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse medium font: %w", err)
	}
	return &Fonts{regular: regular, medium: medium}, nil
}

func (f *Fonts) forWeight(weight int) *opentype.Font {
	if weight >= 500 {
		return f.medium
	}
	return f.regular
}

// maxFaces bounds the sized faces one cache keeps. A card uses a handful of sizes,
// but scales are chosen by the caller.
const maxFaces = 64

type faceKey struct {
	size   int64 // quarter pixels
	medium bool
}

type faceCache struct {
	fonts *Fonts
	faces *lru.Cache[faceKey, font.Face]
}

func newFaceCache(fonts *Fonts) *faceCache {
	faces, _ := lru.NewWithEvict(maxFaces, func(_ faceKey, f font.Face) { _ = f.Close() })
	return &faceCache{fonts: fonts, faces: faces}
}

func (c *faceCache) face(size float64, weight int) (font.Face, error) {
	key := faceKey{size: int64(math.Round(size * 4)), medium: weight >= 500}
	if f, ok := c.faces.Get(key); ok {
		return f, nil
	}
	f, err := opentype.NewFace(c.fonts.forWeight(weight), &opentype.FaceOptions{
		Size:    float64(key.size) / 4,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create face %.2f/%d: %w", size, weight, err)
	}
	c.faces.Add(key, f)
	return f, nil
}

func (c *faceCache) len() int { return c.faces.Len() }

func (c *faceCache) close() { c.faces.Purge() }

// Measurer measures text with the same faces the rasterizer paints with.
type Measurer struct {
	mu    sync.Mutex
	cache *faceCache
}

var _ card.TextMeasurer = (*Measurer)(nil)

func NewMeasurer(fonts *Fonts) *Measurer {
	return &Measurer{cache: newFaceCache(fonts)}
}

func (m *Measurer) Advance(text string, size float64, weight int) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	face, err := m.cache.face(size, weight)
	if err != nil {
		return card.EstimateMeasurer{}.Advance(text, size, weight)
	}
	return float64(font.MeasureString(face, text)) / 64
}

func (m *Measurer) Metrics(size float64, weight int) (float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	face, err := m.cache.face(size, weight)
	if err != nil {
		return card.EstimateMeasurer{}.Metrics(size, weight)
	}
	metrics := face.Metrics()
	return float64(metrics.Ascent) / 64, float64(metrics.Descent) / 64
}
