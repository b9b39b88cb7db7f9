package cache

// ScopedKeyer prefixes every key of an inner Keyer.
//
// The CLI scopes keys by asset root so two projects with different template
// directories never share rendered artifacts:
//
//	keyer := cache.NewScopedKeyer(nil, "root:"+cache.Hash([]byte(absRoot))[:12]+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner with prefix. A nil inner uses DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ResourceKey(ref string) string {
	return k.prefix + k.inner.ResourceKey(ref)
}

func (k *ScopedKeyer) ArtifactKey(stateHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(stateHash, opts)
}
