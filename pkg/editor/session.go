// Package editor holds the interactive editing state and the operations a
// front end drives: selection, layer management, property edits, pointer
// drags and background choice.
//
// A [Session] owns one canvas.State and the id of the selected layer. Every
// mutation replaces the layer list rather than editing it in place, so a
// [render.Snapshot] taken earlier stays valid. [Session.Version] increments on
// each mutation; front ends repaint when it changes.
//
// Sessions are not safe for concurrent use. Resource ready events arrive on a
// channel and are applied with [Session.HandleReady] from the same goroutine
// that calls the other methods.
package editor

import (
	"github.com/matzehuels/memeforge/pkg/canvas"
	"github.com/matzehuels/memeforge/pkg/catalog"
	errs "github.com/matzehuels/memeforge/pkg/errors"
	"github.com/matzehuels/memeforge/pkg/geometry"
	"github.com/matzehuels/memeforge/pkg/layer"
	"github.com/matzehuels/memeforge/pkg/render"
	"github.com/matzehuels/memeforge/pkg/resource"
)

// Session is the editable state of one canvas.
type Session struct {
	state    canvas.State
	selected string
	geo      *geometry.Engine
	drag     *geometry.Drag
	version  uint64
}

// Option configures a Session.
type Option func(*Session)

// WithState starts the session from st instead of the default canvas.
func WithState(st canvas.State) Option {
	return func(s *Session) { s.state = st.Normalize() }
}

// WithGeometry shares a geometry engine, typically the compositor's, so
// hit tests and outlines measure text with the same faces.
func WithGeometry(e *geometry.Engine) Option {
	return func(s *Session) { s.geo = e }
}

// New returns a session on the default 1024x1024 blank canvas.
func New(opts ...Option) *Session {
	s := &Session{state: canvas.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.geo == nil {
		s.geo = geometry.New(nil)
	}
	s.drag = geometry.NewDrag(s.geo)
	return s
}

// State returns the current canvas state.
func (s *Session) State() canvas.State { return s.state }

// Snapshot returns the current state and selection for painting.
func (s *Session) Snapshot() render.Snapshot {
	return render.Snapshot{State: s.state, Selected: s.selected}
}

// Version returns the mutation counter.
func (s *Session) Version() uint64 { return s.version }

// Geometry returns the engine used for hit tests.
func (s *Session) Geometry() *geometry.Engine { return s.geo }

func (s *Session) touch() { s.version++ }

func (s *Session) setLayers(l layer.List) {
	s.state.Layers = l
	s.touch()
}

// Load replaces the whole state, as when opening a share link. The selection
// is cleared and any drag is dropped.
func (s *Session) Load(st canvas.State) {
	s.state = st.Normalize()
	s.selected = ""
	s.drag.End()
	s.touch()
}

// =============================================================================
// Selection
// =============================================================================

// Selected returns the selected layer, if any.
func (s *Session) Selected() (layer.Layer, bool) {
	if s.selected == "" {
		return layer.Layer{}, false
	}
	return s.state.Layers.Find(s.selected)
}

// SelectedID returns the id of the selected layer or "".
func (s *Session) SelectedID() string { return s.selected }

// Select selects the layer with id.
func (s *Session) Select(id string) error {
	if s.state.Layers.Index(id) < 0 {
		return errs.New(errs.ErrCodeLayerNotFound, "no layer %q", id)
	}
	if s.selected != id {
		s.selected = id
		s.touch()
	}
	return nil
}

// SelectAt selects the topmost visible layer under p, or clears the
// selection when nothing is there. It reports whether a layer was hit.
func (s *Session) SelectAt(p geometry.Point) bool {
	id, ok := s.geo.HitTest(s.state.Layers, s.state.Size.Clamp(), p)
	if id != s.selected {
		s.selected = id
		s.touch()
	}
	return ok
}

// Deselect clears the selection.
func (s *Session) Deselect() {
	if s.selected != "" {
		s.selected = ""
		s.touch()
	}
}

// =============================================================================
// Layers
// =============================================================================

func (s *Session) add(l layer.Layer) string {
	s.state.Layers = s.state.Layers.Add(l)
	s.selected = l.ID
	s.touch()
	return l.ID
}

// AddText adds a default caption on top and selects it.
func (s *Session) AddText() string { return s.add(layer.NewText()) }

// AddFace adds the mascot on top and selects it.
func (s *Session) AddFace() string { return s.add(layer.NewFace()) }

// AddImage adds a sticker for src on top and selects it.
func (s *Session) AddImage(src, name string) (string, error) {
	if err := errs.ValidateRef(src); err != nil {
		return "", err
	}
	return s.add(layer.NewImage(src, name)), nil
}

// AddSticker adds a catalog sticker.
func (s *Session) AddSticker(it catalog.Item) (string, error) {
	return s.AddImage(it.Ref, it.Name)
}

// ReplaceImage points the image layer id at a new source, keeping its
// identity and every other attribute.
func (s *Session) ReplaceImage(id, src string) error {
	l, ok := s.state.Layers.Find(id)
	if !ok {
		return errs.New(errs.ErrCodeLayerNotFound, "no layer %q", id)
	}
	if l.Kind() != layer.KindImage {
		return errs.New(errs.ErrCodeInvalidState, "layer %q is a %s layer, not an image", id, l.Kind())
	}
	if err := errs.ValidateRef(src); err != nil {
		return err
	}
	s.setLayers(s.state.Layers.Update(id, func(l layer.Layer) layer.Layer {
		l.Content = layer.Image{Src: src}
		return l
	}))
	return nil
}

// Remove deletes the layer with id. Removing the selected layer clears the
// selection. Unknown ids are ignored.
func (s *Session) Remove(id string) {
	if s.state.Layers.Index(id) < 0 {
		return
	}
	if s.selected == id {
		s.selected = ""
		s.drag.End()
	}
	s.setLayers(s.state.Layers.Remove(id))
}

// ClearStickers removes every image layer. The selection is cleared only if
// it was one of them.
func (s *Session) ClearStickers() {
	if sel, ok := s.Selected(); ok && sel.Kind() == layer.KindImage {
		s.selected = ""
		s.drag.End()
	}
	s.setLayers(s.state.Layers.RemoveKind(layer.KindImage))
}

// ToggleVisible flips the visibility of the layer with id.
func (s *Session) ToggleVisible(id string) {
	if s.state.Layers.Index(id) < 0 {
		return
	}
	s.setLayers(s.state.Layers.ToggleVisible(id))
}

// =============================================================================
// Canvas
// =============================================================================

// SetSize sets the canvas size. Sides below the minimum are raised to it.
func (s *Session) SetSize(w, h int) {
	s.state.Size = canvas.Size{Width: w, Height: h}.Clamp()
	s.touch()
}

// ApplyPreset sets the canvas size from a preset label such as "16:9".
func (s *Session) ApplyPreset(label string) error {
	p, ok := canvas.LookupPreset(label)
	if !ok {
		return errs.New(errs.ErrCodeInvalidInput, "unknown preset %q", label)
	}
	s.SetSize(p.Size.Width, p.Size.Height)
	return nil
}

// SetFill sets the base fill under the background image.
func (s *Session) SetFill(f canvas.Fill) error {
	if !canvas.ValidFills[f] {
		return errs.New(errs.ErrCodeInvalidInput, "unknown fill %q", f)
	}
	s.state.Fill = f
	s.touch()
	return nil
}

// SetTemplate sets the template background. An upload, if any, still wins.
func (s *Session) SetTemplate(ref string) error {
	if err := errs.ValidateRef(ref); err != nil {
		return err
	}
	s.state.TemplateRef = ref
	s.touch()
	return nil
}

// ClearTemplate removes the template background.
func (s *Session) ClearTemplate() {
	s.state.TemplateRef = ""
	s.touch()
}

// SetUpload sets the uploaded background, which takes precedence over the
// template.
func (s *Session) SetUpload(ref string) error {
	if err := errs.ValidateRef(ref); err != nil {
		return err
	}
	s.state.UploadRef = ref
	s.touch()
	return nil
}

// ClearUpload removes the upload; the template, if set, shows again.
func (s *Session) ClearUpload() {
	s.state.UploadRef = ""
	s.touch()
}

// =============================================================================
// Pointer
// =============================================================================

// PointerDown selects the topmost layer under p and starts dragging it.
// Pressing on empty canvas clears the selection.
func (s *Session) PointerDown(p geometry.Point) bool {
	id, ok := s.drag.Begin(s.state.Layers, s.state.Size.Clamp(), p)
	if id != s.selected {
		s.selected = id
		s.touch()
	}
	return ok
}

// PointerMove moves the dragged layer so the grab point follows p.
// It reports whether a layer moved.
func (s *Session) PointerMove(p geometry.Point) bool {
	id, active := s.drag.Active()
	if !active {
		return false
	}
	if s.state.Layers.Index(id) < 0 {
		s.drag.End()
		return false
	}
	x, y, _ := s.drag.Move(p)
	s.setLayers(s.state.Layers.Update(id, func(l layer.Layer) layer.Layer {
		l.X, l.Y = x, y
		return l
	}))
	return true
}

// PointerUp ends any drag.
func (s *Session) PointerUp() { s.drag.End() }

// Dragging reports whether a drag is in progress.
func (s *Session) Dragging() bool {
	_, ok := s.drag.Active()
	return ok
}

// =============================================================================
// Resources
// =============================================================================

// HandleReady applies a resource ready event. It reports whether the
// output depends on ev.Ref and therefore needs a repaint; events for refs
// that were replaced or removed in the meantime are ignored.
func (s *Session) HandleReady(ev resource.Ready) bool {
	if !s.state.References(ev.Ref) {
		return false
	}
	s.touch()
	return true
}
