// Package layer defines the unit of composition: one positioned, styled
// visual element drawn on the canvas.
//
// A [Layer] carries the attributes every element shares (identity, normalized
// position, scale, opacity, rotation, visibility) plus a [Content] variant
// that is exactly one of [Face], [Image] or [Text]. Content is a sealed
// interface: only this package can add variants, so every type switch over
// Content in the renderer and the geometry engine lists the full set and
// treats anything else as a programming error.
//
// # Coordinates
//
// X and Y are fractions of the canvas width and height, not pixels. Scale is
// relative to the shorter canvas side, so a layer with Scale 0.5 on a
// 2048x1024 canvas is rendered 512px square.
//
// # Ordering
//
// A [List] is ordered by z-index: later layers draw on top and are hit-tested
// first. Lists are values; every mutating operation returns a new List and
// leaves the receiver untouched.
package layer

import (
	"strings"

	"github.com/google/uuid"
)

// Kind identifies the content variant of a layer.
type Kind string

// Layer kinds. The string values are part of the share token format.
const (
	KindFace  Kind = "face"
	KindImage Kind = "image"
	KindText  Kind = "text"
)

// Default attribute values for freshly created layers.
const (
	DefaultFontSize      = 72.0
	DefaultStrokePx      = 12.0
	DefaultText          = "NEW TEXT"
	DefaultStickerScale  = 0.6
	DefaultStickerName   = "Sticker"
	DefaultTextName      = "Text"
	DefaultFaceName      = "Face"
	DefaultLetterSpacing = 0.0

	// MaxStrokePx is the widest caption outline, in reference pixels.
	MaxStrokePx = 32.0
)

// Content is the variant-specific part of a layer.
type Content interface {
	Kind() Kind
	isContent()
}

// Face is the built-in mascot graphic. It has no data of its own.
type Face struct{}

// Image is a raster sticker loaded from Src.
// Src can be swapped without changing the layer's identity.
type Image struct {
	Src string
}

// Text is a stroked and filled run of glyphs.
//
// FontSize and StrokePx are logical pixels at the 1024px reference size.
// LetterSpacing is extra space between glyphs and may be negative.
// AllCaps is a display transform; Text itself keeps the typed casing.
type Text struct {
	Text          string
	FontSize      float64
	StrokePx      float64
	LetterSpacing float64
	AllCaps       bool
}

func (Face) Kind() Kind  { return KindFace }
func (Image) Kind() Kind { return KindImage }
func (Text) Kind() Kind  { return KindText }

func (Face) isContent()  {}
func (Image) isContent() {}
func (Text) isContent()  {}

// Display returns the string as drawn on the canvas.
func (t Text) Display() string {
	if t.AllCaps {
		return strings.ToUpper(t.Text)
	}
	return t.Text
}

// Layer is one element of the composition.
type Layer struct {
	ID       string
	Name     string
	X        float64 // fraction of canvas width
	Y        float64 // fraction of canvas height
	Scale    float64 // fraction of min(width, height)
	Opacity  float64 // 0..1
	Rotation float64 // degrees, clockwise
	Visible  bool
	Content  Content
}

// Kind returns the kind of the layer's content.
func (l Layer) Kind() Kind {
	if l.Content == nil {
		return ""
	}
	return l.Content.Kind()
}

// EffectiveScale returns Scale, treating an unset (zero) scale as 1.
func (l Layer) EffectiveScale() float64 {
	if l.Scale == 0 {
		return 1
	}
	return l.Scale
}

// TextContent returns the text variant if the layer is a text layer.
func (l Layer) TextContent() (Text, bool) {
	t, ok := l.Content.(Text)
	return t, ok
}

// ImageContent returns the image variant if the layer is an image layer.
func (l Layer) ImageContent() (Image, bool) {
	img, ok := l.Content.(Image)
	return img, ok
}

// NewID returns a fresh layer id of the form "<prefix>_<7 chars>".
func NewID(prefix string) string {
	if prefix == "" {
		prefix = "layer"
	}
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + raw[:7]
}

// NewText creates a centered text layer with the editor defaults.
func NewText() Layer {
	return Layer{
		ID:      NewID("text"),
		Name:    DefaultTextName,
		X:       0.5,
		Y:       0.5,
		Scale:   1,
		Opacity: 1,
		Visible: true,
		Content: Text{
			Text:          DefaultText,
			FontSize:      DefaultFontSize,
			StrokePx:      DefaultStrokePx,
			LetterSpacing: DefaultLetterSpacing,
			AllCaps:       true,
		},
	}
}

// NewImage creates a centered sticker layer for src.
// An empty name falls back to "Sticker".
func NewImage(src, name string) Layer {
	if name == "" {
		name = DefaultStickerName
	}
	return Layer{
		ID:      NewID("img"),
		Name:    name,
		X:       0.5,
		Y:       0.5,
		Scale:   DefaultStickerScale,
		Opacity: 1,
		Visible: true,
		Content: Image{Src: src},
	}
}

// NewFace creates a centered mascot layer filling the short canvas side.
func NewFace() Layer {
	return Layer{
		ID:      NewID("face"),
		Name:    DefaultFaceName,
		X:       0.5,
		Y:       0.5,
		Scale:   1,
		Opacity: 1,
		Visible: true,
		Content: Face{},
	}
}
