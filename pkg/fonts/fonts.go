// Package fonts provides the embedded caption typeface and the text metrics
// shared by the compositor and the hit-test engine.
//
// The face is Go Bold from golang.org/x/image/font/gofont, parsed once with
// freetype. Both drawing and measuring go through [Cache], so a caption is
// hit-tested against exactly the width it is drawn with.
package fonts

import (
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/math/fixed"
)

const (
	// MinPx is the smallest caption size in pixels, whatever the canvas size.
	MinPx = 10.0

	// MaxPx caps caption sizes so a state with an absurd font size cannot
	// rasterize enormous glyphs.
	MaxPx = 2048.0

	// ReferenceSize is the canvas side at which FontSize equals pixels.
	ReferenceSize = 1024.0

	// LineHeight is the caption box height as a multiple of the font px.
	LineHeight = 1.35
)

// Px converts a logical font size to pixels for a canvas whose shorter side
// is minSide. The result stays within [MinPx, MaxPx].
func Px(fontSize, minSide float64) float64 {
	px := fontSize * minSide / ReferenceSize
	if math.IsNaN(px) {
		return MinPx
	}
	return math.Min(MaxPx, math.Max(MinPx, px))
}

var (
	parsed    *truetype.Font
	parseErr  error
	parseOnce sync.Once
)

// Font returns the parsed caption font.
func Font() (*truetype.Font, error) {
	parseOnce.Do(func() {
		parsed, parseErr = truetype.Parse(gobold.TTF)
	})
	return parsed, parseErr
}

// Run is the layout of one caption: one entry per glyph in display order.
type Run struct {
	Glyphs   []string
	Advances []float64

	// Width is the measured width of the whole string plus letter spacing
	// between glyphs. It may differ slightly from the sum of Advances
	// because whole-string measurement includes kerning.
	Width float64
}

// Start returns the pen x of the first glyph relative to the run center.
func (r Run) Start() float64 { return -r.Width / 2 }

// Cache hands out faces by pixel size. Faces are expensive to build and
// are reused for every paint of a caption at that size.
//
// Cache is safe for concurrent use, but a face returned by Face must only be
// used by one goroutine at a time.
type Cache struct {
	mu    sync.Mutex
	faces map[int]font.Face
}

// NewCache returns an empty face cache.
func NewCache() *Cache {
	return &Cache{faces: make(map[int]font.Face)}
}

// quarter pixel buckets keep the map small while staying visually exact
func key(px float64) int { return int(math.Round(px * 4)) }

// Face returns the caption face at px pixels.
func (c *Cache) Face(px float64) (font.Face, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.faceLocked(px)
}

func (c *Cache) faceLocked(px float64) (font.Face, error) {
	k := key(px)
	if f, ok := c.faces[k]; ok {
		return f, nil
	}
	ft, err := Font()
	if err != nil {
		return nil, err
	}
	f := truetype.NewFace(ft, &truetype.Options{
		Size:    float64(k) / 4,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	c.faces[k] = f
	return f, nil
}

// Measure lays out text at px with spacing extra pixels between glyphs.
// Glyphs are split by rune.
func (c *Cache) Measure(px float64, text string, spacing float64) (Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	face, err := c.faceLocked(px)
	if err != nil {
		return Run{}, err
	}
	return measure(face, text, spacing), nil
}

func measure(face font.Face, text string, spacing float64) Run {
	var run Run
	for _, r := range text {
		g := string(r)
		run.Glyphs = append(run.Glyphs, g)
		run.Advances = append(run.Advances, fixedToFloat(font.MeasureString(face, g)))
	}
	if n := len(run.Glyphs); n > 0 {
		run.Width = fixedToFloat(font.MeasureString(face, text)) + float64(n-1)*spacing
	}
	return run
}

// Metrics returns ascent and descent of the face in pixels.
func Metrics(face font.Face) (ascent, descent float64) {
	m := face.Metrics()
	return fixedToFloat(m.Ascent), fixedToFloat(m.Descent)
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
