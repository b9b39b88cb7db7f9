package cache

import "fmt"

// Keyer builds cache keys. Keeping key construction in one place lets the
// CLI scope keys (see [ScopedKeyer]) without touching the callers.
type Keyer interface {
	// ResourceKey keys the raw bytes behind a remote image ref.
	ResourceKey(ref string) string

	// ArtifactKey keys one rendered export of a canvas state.
	ArtifactKey(stateHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render inputs that change export bytes besides
// the state itself.
type ArtifactKeyOpts struct {
	Format      string `json:"format"`
	TextureSeed uint64 `json:"texture_seed"`
	ShareBase   string `json:"share_base,omitempty"`
	Size        int    `json:"size,omitempty"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key builder.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResourceKey returns "resource:<ref>".
func (DefaultKeyer) ResourceKey(ref string) string {
	return fmt.Sprintf("resource:%s", ref)
}

// ArtifactKey returns "artifact:<hash of state hash and opts>".
func (DefaultKeyer) ArtifactKey(stateHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", stateHash, opts)
}

var _ Keyer = DefaultKeyer{}
