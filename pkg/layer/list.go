package layer

// List is an ordered layer stack. Index 0 is the bottom.
//
// List methods never modify the receiver's backing array; mutations return a
// fresh List so a snapshot handed to the renderer stays valid while the
// editor produces the next one.
type List []Layer

// Clone returns a copy of l with its own backing array.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Index returns the position of the layer with id, or -1.
func (l List) Index(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the layer with id.
func (l List) Find(id string) (Layer, bool) {
	if i := l.Index(id); i >= 0 {
		return l[i], true
	}
	return Layer{}, false
}

// Add returns a new list with layer appended on top.
func (l List) Add(layer Layer) List {
	out := make(List, len(l), len(l)+1)
	copy(out, l)
	return append(out, layer)
}

// Update returns a new list where the layer with id is replaced by fn(layer).
// The id is preserved even if fn changes it. Unknown ids return an equal copy.
func (l List) Update(id string, fn func(Layer) Layer) List {
	out := l.Clone()
	if i := out.Index(id); i >= 0 {
		updated := fn(out[i])
		updated.ID = id
		out[i] = updated
	}
	return out
}

// Remove returns a new list without the layer with id.
func (l List) Remove(id string) List {
	out := make(List, 0, len(l))
	for _, layer := range l {
		if layer.ID != id {
			out = append(out, layer)
		}
	}
	return out
}

// RemoveKind returns a new list without any layer of the given kind.
func (l List) RemoveKind(kind Kind) List {
	out := make(List, 0, len(l))
	for _, layer := range l {
		if layer.Kind() != kind {
			out = append(out, layer)
		}
	}
	return out
}

// ToggleVisible returns a new list with the visibility of id flipped.
func (l List) ToggleVisible(id string) List {
	return l.Update(id, func(layer Layer) Layer {
		layer.Visible = !layer.Visible
		return layer
	})
}

// Visible returns the visible layers in z-order.
func (l List) Visible() List {
	out := make(List, 0, len(l))
	for _, layer := range l {
		if layer.Visible {
			out = append(out, layer)
		}
	}
	return out
}

// ImageRefs returns the image sources referenced by visible image layers,
// in z-order, without duplicates.
func (l List) ImageRefs() []string {
	seen := make(map[string]bool)
	var refs []string
	for _, layer := range l {
		if !layer.Visible {
			continue
		}
		if img, ok := layer.ImageContent(); ok && img.Src != "" && !seen[img.Src] {
			seen[img.Src] = true
			refs = append(refs, img.Src)
		}
	}
	return refs
}
