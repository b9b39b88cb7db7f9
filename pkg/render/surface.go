package render

import (
	"image"
	"io"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/memeforge/pkg/canvas"
)

// Surface is the raster the compositor paints on. The zero value is an empty
// surface; Render sizes it.
type Surface struct {
	img *image.RGBA
}

// NewSurface returns an empty surface.
func NewSurface() *Surface {
	return &Surface{}
}

// Resize makes the surface w by h pixels. A surface that already has that
// size is cleared to transparent instead of reallocated.
func (s *Surface) Resize(w, h int) {
	if s.img != nil && s.img.Rect.Dx() == w && s.img.Rect.Dy() == h {
		clear(s.img.Pix)
		return
	}
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
}

// Image returns the backing raster. It is nil before the first Resize.
func (s *Surface) Image() *image.RGBA {
	return s.img
}

// Size returns the current surface size.
func (s *Surface) Size() canvas.Size {
	if s.img == nil {
		return canvas.Size{}
	}
	return canvas.Size{Width: s.img.Rect.Dx(), Height: s.img.Rect.Dy()}
}

// EncodePNG writes the surface as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	if s.img == nil {
		return errEmptySurface
	}
	return imaging.Encode(w, s.img, imaging.PNG)
}

// scratch is a reusable transparent layer buffer.
type scratch struct {
	img *image.RGBA
}

func (b *scratch) reset(r image.Rectangle) *image.RGBA {
	if b.img == nil || b.img.Rect != r {
		b.img = image.NewRGBA(r)
		return b.img
	}
	clear(b.img.Pix)
	return b.img
}
