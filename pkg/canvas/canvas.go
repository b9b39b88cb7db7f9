// Package canvas holds the editable canvas state: pixel size, background
// choice and the ordered layer list.
//
// [State] is the unit that is serialized into share tokens and state files.
// Selection is deliberately not part of it.
package canvas

import (
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/memeforge/pkg/layer"
)

// =============================================================================
// Size
// =============================================================================

const (
	// MinDimension is the smallest accepted width or height in pixels.
	MinDimension = 256

	// MaxDimension is the largest accepted width or height in pixels.
	MaxDimension = 8192

	// ReferenceSize is the canvas side against which text metrics are defined.
	ReferenceSize = 1024.0

	// DefaultWidth and DefaultHeight match the 1:1 preset.
	DefaultWidth  = 1024
	DefaultHeight = 1024
)

// Size is a canvas size in pixels.
type Size struct {
	Width  int
	Height int
}

// Clamp returns s with each side limited to [MinDimension, MaxDimension].
func (s Size) Clamp() Size {
	s.Width = min(max(s.Width, MinDimension), MaxDimension)
	s.Height = min(max(s.Height, MinDimension), MaxDimension)
	return s
}

// Min returns the shorter side.
func (s Size) Min() float64 {
	return math.Min(float64(s.Width), float64(s.Height))
}

// ScaleFactor returns Min()/1024, the factor applied to text metrics.
func (s Size) ScaleFactor() float64 {
	return s.Min() / ReferenceSize
}

// ParseDimension coerces user input into a valid dimension.
// Non-numeric input becomes 0 and is then floored to MinDimension; values
// above MaxDimension are capped.
func ParseDimension(input string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || math.IsNaN(v) {
		v = 0
	}
	v = math.Min(math.Max(v, MinDimension), MaxDimension)
	return int(v)
}

// Preset is a named aspect-ratio shortcut.
type Preset struct {
	Label string
	Size  Size
}

// Presets lists the canvas size shortcuts in display order.
var Presets = []Preset{
	{Label: "1:1", Size: Size{Width: 1024, Height: 1024}},
	{Label: "16:9", Size: Size{Width: 1600, Height: 900}},
	{Label: "9:16", Size: Size{Width: 1080, Height: 1920}},
	{Label: "3:1", Size: Size{Width: 1800, Height: 600}},
}

// LookupPreset returns the preset with the given label.
func LookupPreset(label string) (Preset, bool) {
	for _, p := range Presets {
		if p.Label == label {
			return p, true
		}
	}
	return Preset{}, false
}

// =============================================================================
// Background
// =============================================================================

// Fill is the base paint under the background image.
type Fill string

const (
	FillBlank   Fill = "blank"   // flat white
	FillClassic Fill = "classic" // white with a faint dotted texture
	FillDark    Fill = "dark"    // vertical gradient #111 to #000
)

// ValidFills is the set of supported fills.
var ValidFills = map[Fill]bool{
	FillBlank:   true,
	FillClassic: true,
	FillDark:    true,
}

// BackgroundSource reports where the active background image comes from.
type BackgroundSource string

const (
	SourceNone     BackgroundSource = "none"
	SourceTemplate BackgroundSource = "template"
	SourceUpload   BackgroundSource = "upload"
)

// =============================================================================
// State
// =============================================================================

// State is the full editable canvas state.
type State struct {
	Size        Size
	Fill        Fill
	TemplateRef string // catalog template, may be empty
	UploadRef   string // user upload, wins over TemplateRef when set
	Layers      layer.List
}

// Default returns the empty 1024x1024 blank canvas.
func Default() State {
	return State{
		Size:   Size{Width: DefaultWidth, Height: DefaultHeight},
		Fill:   FillBlank,
		Layers: layer.List{},
	}
}

// ActiveBackground returns the background ref to draw, if any.
// An upload always takes precedence over a template.
func (s State) ActiveBackground() string {
	if s.UploadRef != "" {
		return s.UploadRef
	}
	return s.TemplateRef
}

// BackgroundSource reports which ref ActiveBackground returns.
func (s State) BackgroundSource() BackgroundSource {
	switch {
	case s.UploadRef != "":
		return SourceUpload
	case s.TemplateRef != "":
		return SourceTemplate
	default:
		return SourceNone
	}
}

// Refs returns every image ref the state needs to render:
// the active background followed by visible image layers.
func (s State) Refs() []string {
	var refs []string
	if bg := s.ActiveBackground(); bg != "" {
		refs = append(refs, bg)
	}
	for _, ref := range s.Layers.ImageRefs() {
		if ref != s.ActiveBackground() {
			refs = append(refs, ref)
		}
	}
	return refs
}

// References reports whether ref is still used by the rendered output.
func (s State) References(ref string) bool {
	if ref == "" {
		return false
	}
	for _, r := range s.Refs() {
		if r == ref {
			return true
		}
	}
	return false
}

// Normalize applies the size bounds and the default fill. A nil layer list
// becomes an empty one. Layer attributes are left as they are.
func (s State) Normalize() State {
	s.Size = s.Size.Clamp()
	if s.Layers == nil {
		s.Layers = layer.List{}
	}
	if !ValidFills[s.Fill] {
		s.Fill = FillBlank
	}
	return s
}
