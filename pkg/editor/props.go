package editor

import (
	"math"

	errs "github.com/matzehuels/memeforge/pkg/errors"
	"github.com/matzehuels/memeforge/pkg/layer"
)

// Range is the accepted interval of an editable property. Setters clamp
// their input into it.
type Range struct {
	Min, Max, Step float64
}

// Clamp returns v limited to [r.Min, r.Max]. NaN becomes r.Min.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return r.Min
	}
	return math.Max(r.Min, math.Min(r.Max, v))
}

// Property ranges of the layer controls.
var (
	PositionRange      = Range{Min: 0, Max: 1, Step: 0.001}
	ScaleRange         = Range{Min: 0.2, Max: 2, Step: 0.01}
	OpacityRange       = Range{Min: 0.2, Max: 1, Step: 0.01}
	FontSizeRange      = Range{Min: 24, Max: 200, Step: 1}
	StrokeRange        = Range{Min: 2, Max: layer.MaxStrokePx, Step: 1}
	LetterSpacingRange = Range{Min: -2, Max: 30, Step: 0.5}
)

// errNoSelection is returned by property setters when nothing is selected.
func errNoSelection() error {
	return errs.New(errs.ErrCodeInvalidState, "no layer selected")
}

// updateSelected applies fn to the selected layer.
func (s *Session) updateSelected(fn func(layer.Layer) layer.Layer) error {
	if _, ok := s.Selected(); !ok {
		return errNoSelection()
	}
	s.setLayers(s.state.Layers.Update(s.selected, fn))
	return nil
}

// updateText applies fn to the selected layer's text content.
func (s *Session) updateText(fn func(layer.Text) layer.Text) error {
	sel, ok := s.Selected()
	if !ok {
		return errNoSelection()
	}
	if _, ok := sel.TextContent(); !ok {
		return errs.New(errs.ErrCodeInvalidState, "layer %q is not a text layer", sel.ID)
	}
	return s.updateSelected(func(l layer.Layer) layer.Layer {
		t, _ := l.TextContent()
		l.Content = fn(t)
		return l
	})
}

// SetPosition moves the selected layer to the normalized position x, y.
func (s *Session) SetPosition(x, y float64) error {
	return s.updateSelected(func(l layer.Layer) layer.Layer {
		l.X, l.Y = PositionRange.Clamp(x), PositionRange.Clamp(y)
		return l
	})
}

func (s *Session) SetScale(v float64) error {
	return s.updateSelected(func(l layer.Layer) layer.Layer {
		l.Scale = ScaleRange.Clamp(v)
		return l
	})
}

func (s *Session) SetOpacity(v float64) error {
	return s.updateSelected(func(l layer.Layer) layer.Layer {
		l.Opacity = OpacityRange.Clamp(v)
		return l
	})
}

// SetRotation sets the clockwise rotation in degrees, normalized to
// (-360, 360).
func (s *Session) SetRotation(deg float64) error {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		deg = 0
	}
	return s.updateSelected(func(l layer.Layer) layer.Layer {
		l.Rotation = math.Mod(deg, 360)
		return l
	})
}

// Rename sets the display name of the selected layer.
func (s *Session) Rename(name string) error {
	return s.updateSelected(func(l layer.Layer) layer.Layer {
		l.Name = name
		return l
	})
}

func (s *Session) SetText(text string) error {
	return s.updateText(func(t layer.Text) layer.Text {
		t.Text = text
		return t
	})
}

func (s *Session) SetFontSize(v float64) error {
	return s.updateText(func(t layer.Text) layer.Text {
		t.FontSize = FontSizeRange.Clamp(v)
		return t
	})
}

func (s *Session) SetStrokePx(v float64) error {
	return s.updateText(func(t layer.Text) layer.Text {
		t.StrokePx = StrokeRange.Clamp(v)
		return t
	})
}

func (s *Session) SetLetterSpacing(v float64) error {
	return s.updateText(func(t layer.Text) layer.Text {
		t.LetterSpacing = LetterSpacingRange.Clamp(v)
		return t
	})
}

func (s *Session) SetAllCaps(on bool) error {
	return s.updateText(func(t layer.Text) layer.Text {
		t.AllCaps = on
		return t
	})
}
