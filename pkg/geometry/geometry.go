// Package geometry answers "where is this layer" and "what is under this
// point" for a layer list on a canvas of a given size.
//
// Boxes are axis-aligned bounds of the rotated layer rectangle, so a rotated
// layer is hit-tested against a box that is looser than its visible shape.
// The selection outline drawn by the compositor uses the same box.
package geometry

import (
	"fmt"
	"math"

	"github.com/matzehuels/memeforge/pkg/canvas"
	"github.com/matzehuels/memeforge/pkg/fonts"
	"github.com/matzehuels/memeforge/pkg/layer"
)

// Point is a position in canvas pixels.
type Point struct {
	X, Y float64
}

// Box is an axis-aligned rectangle in canvas pixels.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns MaxX - MinX.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Center returns the middle of the box.
func (b Box) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Contains reports whether p lies in b. All four edges are inclusive.
func (b Box) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

func (b Box) String() string {
	return fmt.Sprintf("[%.1f,%.1f %.1fx%.1f]", b.MinX, b.MinY, b.Width(), b.Height())
}

// Engine computes boxes and hit tests. The zero value is not usable; build
// one with New.
type Engine struct {
	Fonts *fonts.Cache
}

// New returns an engine measuring captions with fc.
// A nil fc gets a private cache.
func New(fc *fonts.Cache) *Engine {
	if fc == nil {
		fc = fonts.NewCache()
	}
	return &Engine{Fonts: fc}
}

// Center returns the layer center in canvas pixels.
func Center(l layer.Layer, size canvas.Size) Point {
	return Point{X: float64(size.Width) * l.X, Y: float64(size.Height) * l.Y}
}

// RenderSize returns the pixel side of a face or image layer.
func RenderSize(l layer.Layer, size canvas.Size) float64 {
	return size.Min() * l.EffectiveScale()
}

// Extent returns the unrotated width and height of the layer in pixels.
//
// Face and image layers are square with side RenderSize. Text layers are as
// wide as their measured run and fonts.LineHeight times the font px tall;
// their Scale is ignored.
func (e *Engine) Extent(l layer.Layer, size canvas.Size) (w, h float64, err error) {
	switch c := l.Content.(type) {
	case layer.Face, layer.Image:
		s := RenderSize(l, size)
		return s, s, nil
	case layer.Text:
		px := fonts.Px(c.FontSize, size.Min())
		run, err := e.Fonts.Measure(px, c.Display(), c.LetterSpacing)
		if err != nil {
			return 0, 0, fmt.Errorf("measure %s: %w", l.ID, err)
		}
		return run.Width, px * fonts.LineHeight, nil
	case nil:
		return 0, 0, fmt.Errorf("layer %s has no content", l.ID)
	default:
		panic(fmt.Sprintf("geometry: unhandled content %T", c))
	}
}

// BoundingBox returns the axis-aligned bounds of the layer after rotation
// about its center.
func (e *Engine) BoundingBox(l layer.Layer, size canvas.Size) (Box, error) {
	w, h, err := e.Extent(l, size)
	if err != nil {
		return Box{}, err
	}
	return rotatedBounds(Center(l, size), w/2, h/2, l.Rotation), nil
}

func rotatedBounds(c Point, hw, hh, degrees float64) Box {
	a := degrees * math.Pi / 180
	sin, cos := math.Sincos(a)

	corners := [4][2]float64{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
	b := Box{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, k := range corners {
		x := c.X + k[0]*cos - k[1]*sin
		y := c.Y + k[0]*sin + k[1]*cos
		b.MinX = math.Min(b.MinX, x)
		b.MaxX = math.Max(b.MaxX, x)
		b.MinY = math.Min(b.MinY, y)
		b.MaxY = math.Max(b.MaxY, y)
	}
	return b
}

// HitTest returns the id of the topmost visible layer whose box contains p.
// Layers that cannot be measured are skipped.
func (e *Engine) HitTest(layers layer.List, size canvas.Size, p Point) (string, bool) {
	l, _, ok := e.hit(layers, size, p)
	if !ok {
		return "", false
	}
	return l.ID, true
}

func (e *Engine) hit(layers layer.List, size canvas.Size, p Point) (layer.Layer, Box, bool) {
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if !l.Visible {
			continue
		}
		box, err := e.BoundingBox(l, size)
		if err != nil {
			continue
		}
		if box.Contains(p) {
			return l, box, true
		}
	}
	return layer.Layer{}, Box{}, false
}
