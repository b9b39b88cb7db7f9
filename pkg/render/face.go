package render

import (
	"image/color"

	"github.com/fogleman/gg"
)

// The mascot is authored in an 800x800 box centered on 400,400 and stroked
// black at 8 units with round caps and joins.
const (
	faceViewBox = 800.0
	faceStroke  = 8.0
)

// drawFace paints the mascot centered on the origin, side pixels square.
func drawFace(dc *gg.Context, side float64) {
	k := side / faceViewBox
	dc.Push()
	defer dc.Pop()

	dc.Scale(k, k)
	dc.Translate(-faceViewBox/2, -faceViewBox/2)
	// gg does not scale line widths with the matrix
	dc.SetLineWidth(faceStroke * k)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	// head
	dc.MoveTo(150, 400)
	dc.CubicTo(150, 260, 270, 150, 400, 150)
	dc.CubicTo(530, 150, 650, 260, 650, 400)
	dc.CubicTo(650, 540, 530, 650, 400, 650)
	dc.CubicTo(270, 650, 150, 540, 150, 400)
	dc.ClosePath()
	fillStroke(dc, color.White)

	// eyes
	dc.DrawEllipse(340, 370, 60, 38)
	fillStroke(dc, color.White)
	dc.DrawEllipse(490, 370, 60, 38)
	fillStroke(dc, color.White)
	dc.DrawCircle(355, 375, 10)
	fillStroke(dc, color.Black)
	dc.DrawCircle(475, 372, 10)
	fillStroke(dc, color.Black)

	// brows
	line(dc, 280, 340, 400, 315)
	line(dc, 420, 315, 550, 340)

	// nose, chin, cheeks
	quad(dc, 410, 410, 400, 430, 405, 450)
	quad(dc, 370, 470, 410, 490, 450, 470)
	quad(dc, 300, 500, 270, 460, 240, 460)
	quad(dc, 520, 500, 550, 460, 580, 460)

	// mouth
	dc.DrawRoundedRectangle(310, 435, 180, 28, 6)
	dc.SetColor(color.Black)
	dc.Stroke()
	dc.DrawRoundedRectangle(310, 435, 90, 28, 6)
	fillStroke(dc, color.Black)
}

func fillStroke(dc *gg.Context, fill color.Color) {
	dc.SetColor(fill)
	dc.FillPreserve()
	dc.SetColor(color.Black)
	dc.Stroke()
}

func line(dc *gg.Context, x1, y1, x2, y2 float64) {
	dc.SetColor(color.Black)
	dc.DrawLine(x1, y1, x2, y2)
	dc.Stroke()
}

func quad(dc *gg.Context, x0, y0, cx, cy, x1, y1 float64) {
	dc.SetColor(color.Black)
	dc.MoveTo(x0, y0)
	dc.QuadraticTo(cx, cy, x1, y1)
	dc.Stroke()
}
