package cli

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/memeforge/pkg/geometry"
)

// preview is a raster downsampled to terminal cells. Each cell shows two
// vertically stacked pixels with the upper half block, so one cell is one
// pixel wide and two pixels tall.
type preview struct {
	text  string
	scale float64 // preview pixels per canvas pixel
	cols  int
	rows  int
}

// newPreview fits img into at most cols x rows cells, keeping its aspect.
func newPreview(img image.Image, cols, rows int) preview {
	b := img.Bounds()
	if b.Empty() || cols <= 0 || rows <= 0 {
		return preview{}
	}
	scale := math.Min(float64(cols)/float64(b.Dx()), float64(rows*2)/float64(b.Dy()))
	w := max(1, int(float64(b.Dx())*scale))
	h := max(2, int(float64(b.Dy())*scale))
	h -= h % 2

	small := imaging.Resize(img, w, h, imaging.Box)

	var sb strings.Builder
	for y := 0; y < h; y += 2 {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < w; x++ {
			cell := lipgloss.NewStyle().
				Foreground(hexColor(small.NRGBAAt(x, y))).
				Background(hexColor(small.NRGBAAt(x, y+1)))
			sb.WriteString(cell.Render("▀"))
		}
	}
	return preview{text: sb.String(), scale: scale, cols: w, rows: h / 2}
}

// canvasPoint maps a cell relative to the preview's top left corner to
// canvas pixels. The point is the center of the cell. ok is false outside
// the preview; the point is still returned so drags can follow the mouse
// past the edge.
func (p preview) canvasPoint(col, row int) (pt geometry.Point, ok bool) {
	if p.scale <= 0 {
		return geometry.Point{}, false
	}
	pt = geometry.Point{
		X: (float64(col) + 0.5) / p.scale,
		Y: (float64(row)*2 + 1) / p.scale,
	}
	ok = col >= 0 && col < p.cols && row >= 0 && row < p.rows
	return pt, ok
}

func hexColor(c color.NRGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
