package geometry

import (
	"github.com/matzehuels/memeforge/pkg/canvas"
	"github.com/matzehuels/memeforge/pkg/layer"
)

// Drag tracks one pointer drag of a layer.
//
// Begin hit-tests the pointer and remembers the offset from the layer
// center, so the layer does not jump to the pointer on the first Move.
type Drag struct {
	engine *Engine
	size   canvas.Size
	id     string
	off    Point
	active bool
}

// NewDrag returns an idle drag bound to e.
func NewDrag(e *Engine) *Drag {
	return &Drag{engine: e}
}

// Begin starts a drag on the topmost layer under p. It returns the hit id and
// false when nothing is under p, in which case the drag stays idle.
func (d *Drag) Begin(layers layer.List, size canvas.Size, p Point) (string, bool) {
	l, box, ok := d.engine.hit(layers, size, p)
	if !ok {
		d.End()
		return "", false
	}
	c := box.Center()
	d.size = size
	d.id = l.ID
	d.off = Point{X: p.X - c.X, Y: p.Y - c.Y}
	d.active = true
	return l.ID, true
}

// Active reports whether a drag is in progress, and on which layer.
func (d *Drag) Active() (string, bool) {
	return d.id, d.active
}

// Move returns the normalized layer position for pointer p, each component
// clamped to [0,1]. ok is false when no drag is active.
func (d *Drag) Move(p Point) (x, y float64, ok bool) {
	if !d.active {
		return 0, 0, false
	}
	x = clamp01((p.X - d.off.X) / float64(d.size.Width))
	y = clamp01((p.Y - d.off.Y) / float64(d.size.Height))
	return x, y, true
}

// End stops the drag. It is safe to call at any time.
func (d *Drag) End() {
	d.id = ""
	d.off = Point{}
	d.active = false
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
