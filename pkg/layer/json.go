package layer

import (
	"encoding/json"
	"fmt"
)

// wireLayer is the flat JSON shape shared with share tokens and state files.
// Variant fields are only present for their kind.
type wireLayer struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     Kind     `json:"type"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Scale    *float64 `json:"scale,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Rotation float64  `json:"rotation,omitempty"`
	Visible  *bool    `json:"visible,omitempty"`

	// image
	Src string `json:"src,omitempty"`

	// text
	Text          *string  `json:"text,omitempty"`
	FontSize      *float64 `json:"fontSize,omitempty"`
	StrokePx      *float64 `json:"strokePx,omitempty"`
	LetterSpacing *float64 `json:"letterSpacing,omitempty"`
	AllCaps       *bool    `json:"allCaps,omitempty"`
}

// MarshalJSON encodes the layer in the flat tagged form:
//
//	{"id":"text_1a2b3c4","name":"Text","type":"text","x":0.5,"y":0.5,...}
func (l Layer) MarshalJSON() ([]byte, error) {
	w := wireLayer{
		ID:       l.ID,
		Name:     l.Name,
		Type:     l.Kind(),
		X:        l.X,
		Y:        l.Y,
		Scale:    &l.Scale,
		Opacity:  &l.Opacity,
		Rotation: l.Rotation,
		Visible:  &l.Visible,
	}

	switch c := l.Content.(type) {
	case Face:
	case Image:
		w.Src = c.Src
	case Text:
		w.Text = &c.Text
		w.FontSize = &c.FontSize
		w.StrokePx = &c.StrokePx
		w.LetterSpacing = &c.LetterSpacing
		w.AllCaps = &c.AllCaps
	case nil:
		return nil, fmt.Errorf("layer %s: missing content", l.ID)
	default:
		panic(fmt.Sprintf("layer: unhandled content %T", c))
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the flat tagged form.
//
// Missing optional attributes take the editor defaults: visible true,
// rotation 0, opacity 1, scale 1. An unknown type is an error.
func (l *Layer) UnmarshalJSON(data []byte) error {
	var w wireLayer
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := Layer{
		ID:       w.ID,
		Name:     w.Name,
		X:        w.X,
		Y:        w.Y,
		Scale:    1,
		Opacity:  1,
		Rotation: w.Rotation,
		Visible:  true,
	}
	if w.Scale != nil {
		out.Scale = *w.Scale
	}
	if w.Opacity != nil {
		out.Opacity = *w.Opacity
	}
	if w.Visible != nil {
		out.Visible = *w.Visible
	}

	switch w.Type {
	case KindFace:
		out.Content = Face{}
	case KindImage:
		out.Content = Image{Src: w.Src}
	case KindText:
		t := Text{
			FontSize: DefaultFontSize,
			StrokePx: DefaultStrokePx,
		}
		if w.Text != nil {
			t.Text = *w.Text
		}
		if w.FontSize != nil {
			t.FontSize = *w.FontSize
		}
		if w.StrokePx != nil {
			t.StrokePx = *w.StrokePx
		}
		if w.LetterSpacing != nil {
			t.LetterSpacing = *w.LetterSpacing
		}
		if w.AllCaps != nil {
			t.AllCaps = *w.AllCaps
		}
		out.Content = t
	default:
		return fmt.Errorf("layer %q: unknown type %q", w.ID, w.Type)
	}

	*l = out
	return nil
}
