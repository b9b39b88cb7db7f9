package render

import (
	"image"
	"image/color"
	"image/draw"
	"math/rand/v2"

	"github.com/fogleman/gg"

	"github.com/matzehuels/memeforge/pkg/canvas"
)

// Classic texture parameters.
const (
	textureDots    = 4000
	textureMaxSide = 1.2
)

var (
	textureColor = color.NRGBA{A: 8} // black at 3%
	darkTop      = color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}
	darkBottom   = color.RGBA{A: 0xff}
)

func (c *Compositor) paintFill(dst *image.RGBA, fill canvas.Fill) {
	b := dst.Bounds()
	switch fill {
	case canvas.FillDark:
		dc := gg.NewContextForRGBA(dst)
		grad := gg.NewLinearGradient(0, 0, 0, float64(b.Dy()))
		grad.AddColorStop(0, darkTop)
		grad.AddColorStop(1, darkBottom)
		dc.SetFillStyle(grad)
		dc.DrawRectangle(0, 0, float64(b.Dx()), float64(b.Dy()))
		dc.Fill()
	case canvas.FillClassic:
		draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
		c.paintTexture(dst)
	default:
		draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	}
}

// paintTexture scatters faint square dots over dst. Each dot is filled on
// its own so overlapping dots darken.
func (c *Compositor) paintTexture(dst *image.RGBA) {
	rng := c.textureRand()
	w, h := float64(dst.Bounds().Dx()), float64(dst.Bounds().Dy())

	dc := gg.NewContextForRGBA(dst)
	dc.SetColor(textureColor)
	for range textureDots {
		x, y := rng.Float64()*w, rng.Float64()*h
		fillDot(dc, x, y, rng.Float64()*textureMaxSide)
	}
}

// fillDot fills one square on its own so it composites over earlier dots.
func fillDot(dc *gg.Context, x, y, side float64) {
	dc.DrawRectangle(x, y, side, side)
	dc.Fill()
}

func (c *Compositor) textureRand() *rand.Rand {
	seed := c.TextureSeed
	if c.Jitter {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
