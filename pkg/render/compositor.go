package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"

	"github.com/matzehuels/memeforge/pkg/canvas"
	"github.com/matzehuels/memeforge/pkg/fonts"
	"github.com/matzehuels/memeforge/pkg/geometry"
	"github.com/matzehuels/memeforge/pkg/layer"
	"github.com/matzehuels/memeforge/pkg/observability"
	"github.com/matzehuels/memeforge/pkg/resource"
)

var errEmptySurface = errors.New("render: surface has not been painted")

// Selection outline style.
var (
	selectionColor = color.NRGBA{R: 0, G: 200, B: 255, A: 242}
	selectionDash  = []float64{6, 6}
)

const selectionWidth = 2.0

// Resources resolves image refs for the compositor.
//
// Lookup must not block. Request schedules a load for a ref that is not
// ready; calling it repeatedly for the same ref is allowed.
type Resources interface {
	Lookup(ref string) (image.Image, resource.Status)
	Request(ref string)
}

// Snapshot is the immutable input of one paint.
type Snapshot struct {
	State    canvas.State
	Selected string // layer id, empty for none
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithFonts shares a face cache with other users, typically the geometry
// engine, so captions are measured once.
func WithFonts(fc *fonts.Cache) Option {
	return func(c *Compositor) { c.Fonts = fc }
}

// WithTextureSeed seeds the classic fill texture.
func WithTextureSeed(seed uint64) Option {
	return func(c *Compositor) { c.TextureSeed = seed }
}

// WithJitter reseeds the texture on every paint so it shimmers between
// repaints, like a browser canvas would.
func WithJitter(on bool) Option {
	return func(c *Compositor) { c.Jitter = on }
}

// WithLogger sets the logger used for skipped layers.
func WithLogger(l *log.Logger) Option {
	return func(c *Compositor) { c.Logger = l }
}

// DefaultTextureSeed is used when no seed is configured.
const DefaultTextureSeed = 42

// Compositor paints snapshots. It keeps scratch buffers and a resize cache
// between paints and is not safe for concurrent use.
type Compositor struct {
	Resources   Resources
	Fonts       *fonts.Cache
	TextureSeed uint64
	Jitter      bool
	Logger      *log.Logger

	geo     *geometry.Engine
	scratch scratch
	resized resizeCache
}

// New returns a compositor resolving images through res.
// A nil res draws no images at all.
func New(res Resources, opts ...Option) *Compositor {
	c := &Compositor{
		Resources:   res,
		TextureSeed: DefaultTextureSeed,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Fonts == nil {
		c.Fonts = fonts.NewCache()
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	c.geo = geometry.New(c.Fonts)
	return c
}

// Geometry returns the engine the compositor uses for selection outlines.
// It shares the compositor's face cache.
func (c *Compositor) Geometry() *geometry.Engine {
	return c.geo
}

// Render repaints surface from snap.
func (c *Compositor) Render(surface *Surface, snap Snapshot) {
	c.RenderContext(context.Background(), surface, snap)
}

// RenderContext is Render with a context for observability hooks.
// Painting itself never blocks and ignores cancellation.
func (c *Compositor) RenderContext(ctx context.Context, surface *Surface, snap Snapshot) {
	start := time.Now()
	st := snap.State
	size := st.Size.Clamp()
	observability.Render().OnRenderStart(ctx, size.Width, size.Height, len(st.Layers))

	surface.Resize(size.Width, size.Height)
	dst := surface.Image()

	c.paintFill(dst, st.Fill)
	c.paintBackground(dst, st.ActiveBackground())

	for _, l := range st.Layers {
		if !l.Visible {
			continue
		}
		c.paintLayer(dst, l, size)
	}

	if snap.Selected != "" {
		if l, ok := st.Layers.Find(snap.Selected); ok && l.Visible {
			c.paintSelection(dst, l, size)
		}
	}

	observability.Render().OnRenderComplete(ctx, size.Width, size.Height, time.Since(start))
}

// Export renders state without selection and writes it as PNG.
func (c *Compositor) Export(w io.Writer, state canvas.State) error {
	s := NewSurface()
	c.Render(s, Snapshot{State: state})
	if err := s.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// =============================================================================
// Background
// =============================================================================

func (c *Compositor) paintBackground(dst *image.RGBA, ref string) {
	if ref == "" {
		return
	}
	img, ok := c.resolve(ref)
	if !ok {
		return
	}
	b := dst.Bounds()
	cover := c.resized.cover(ref, img, b.Dx(), b.Dy())
	draw.Draw(dst, b, cover, cover.Bounds().Min, draw.Over)
}

// resolve returns the image for ref if it is ready, requesting it otherwise.
func (c *Compositor) resolve(ref string) (image.Image, bool) {
	if c.Resources == nil {
		return nil, false
	}
	img, status := c.Resources.Lookup(ref)
	switch status {
	case resource.StatusReady:
		return img, img != nil
	case resource.StatusFailed:
		return nil, false
	default:
		c.Resources.Request(ref)
		return nil, false
	}
}

// =============================================================================
// Layers
// =============================================================================

func (c *Compositor) paintLayer(dst *image.RGBA, l layer.Layer, size canvas.Size) {
	if l.Opacity <= 0 {
		return
	}

	buf := c.scratch.reset(dst.Bounds())
	dc := gg.NewContextForRGBA(buf)
	center := geometry.Center(l, size)

	dc.Push()
	dc.Translate(center.X, center.Y)
	dc.Rotate(gg.Radians(l.Rotation))

	var drawn bool
	switch content := l.Content.(type) {
	case layer.Face:
		drawFace(dc, geometry.RenderSize(l, size))
		drawn = true
	case layer.Image:
		drawn = c.drawImage(dc, l, content, geometry.RenderSize(l, size))
	case layer.Text:
		drawn = c.drawText(dc, l, content, size)
	case nil:
		c.Logger.Debug("layer without content", "layer", l.ID)
	default:
		panic(fmt.Sprintf("render: unhandled content %T", content))
	}
	dc.Pop()

	if !drawn {
		return
	}
	blend(dst, buf, l.Opacity)
}

// blend composites src over dst with a uniform alpha.
func blend(dst, src *image.RGBA, opacity float64) {
	b := dst.Bounds()
	if opacity >= 1 {
		draw.Draw(dst, b, src, b.Min, draw.Over)
		return
	}
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(opacity * 255))})
	draw.DrawMask(dst, b, src, b.Min, mask, image.Point{}, draw.Over)
}

func (c *Compositor) drawImage(dc *gg.Context, l layer.Layer, content layer.Image, side float64) bool {
	if content.Src == "" {
		return false
	}
	img, ok := c.resolve(content.Src)
	if !ok {
		c.Logger.Debug("image not ready", "layer", l.ID, "src", content.Src)
		return false
	}
	b := img.Bounds()
	if b.Empty() || !(side >= 1) {
		return false
	}
	// Past the canvas diagonal a pre-scaled copy would be mostly off canvas;
	// let the transform sample the source so cost follows the canvas instead.
	if side > math.Hypot(float64(dc.Width()), float64(dc.Height())) {
		dc.Scale(side/float64(b.Dx()), side/float64(b.Dy()))
		dc.DrawImageAnchored(img, 0, 0, 0.5, 0.5)
		return true
	}
	px := int(math.Round(side))
	dc.DrawImageAnchored(c.resized.square(content.Src, img, px), 0, 0, 0.5, 0.5)
	return true
}

// =============================================================================
// Selection
// =============================================================================

func (c *Compositor) paintSelection(dst *image.RGBA, l layer.Layer, size canvas.Size) {
	box, err := c.geo.BoundingBox(l, size)
	if err != nil {
		c.Logger.Debug("selection outline skipped", "layer", l.ID, "err", err)
		return
	}
	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(selectionColor)
	dc.SetDash(selectionDash...)
	dc.SetLineWidth(selectionWidth)
	dc.DrawRectangle(box.MinX, box.MinY, box.Width(), box.Height())
	dc.Stroke()
}
