package render

import (
	"image/color"

	"github.com/fogleman/gg"

	"github.com/matzehuels/memeforge/pkg/canvas"
	"github.com/matzehuels/memeforge/pkg/fonts"
	"github.com/matzehuels/memeforge/pkg/layer"
)

// drawText paints a caption glyph by glyph centered on the origin: each
// glyph is first stroked black, then filled white, and the pen advances by
// the glyph advance plus letter spacing.
//
// gg has no text outlines, so the stroke is approximated by redrawing the
// glyph at every integer offset inside a disc of half the stroke width.
func (c *Compositor) drawText(dc *gg.Context, l layer.Layer, t layer.Text, size canvas.Size) bool {
	display := t.Display()
	if display == "" {
		return false
	}

	px := fonts.Px(t.FontSize, size.Min())
	face, err := c.Fonts.Face(px)
	if err != nil {
		c.Logger.Debug("caption face unavailable", "layer", l.ID, "err", err)
		return false
	}
	run, err := c.Fonts.Measure(px, display, t.LetterSpacing)
	if err != nil {
		c.Logger.Debug("caption measure failed", "layer", l.ID, "err", err)
		return false
	}

	dc.SetFontFace(face)
	offsets := strokeOffsets(min(t.StrokePx, layer.MaxStrokePx) * size.ScaleFactor() / 2)

	pen := run.Start()
	for i, g := range run.Glyphs {
		adv := run.Advances[i]
		x := pen + adv/2

		dc.SetColor(color.Black)
		for _, o := range offsets {
			dc.DrawStringAnchored(g, x+o[0], o[1], 0.5, 0.5)
		}
		dc.SetColor(color.White)
		dc.DrawStringAnchored(g, x, 0, 0.5, 0.5)

		pen += adv + t.LetterSpacing
	}
	return true
}

// strokeOffsets returns the integer offsets within radius r, excluding the
// origin. A radius below half a pixel yields no stroke.
func strokeOffsets(r float64) [][2]float64 {
	if !(r >= 0.5) {
		return nil
	}
	n := int(r + 0.5)
	var out [][2]float64
	for dy := -n; dy <= n; dy++ {
		for dx := -n; dx <= n; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if float64(dx*dx+dy*dy) > r*r {
				continue
			}
			out = append(out, [2]float64{float64(dx), float64(dy)})
		}
	}
	return out
}
