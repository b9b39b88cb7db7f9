// Package cache stores opaque byte blobs with a time-to-live.
//
// Two kinds of entries pass through it: remote image bytes fetched by the
// resource loader, and rendered export artifacts produced by the pipeline.
// Keys come from a [Keyer] so both callers agree on the namespace layout.
//
// [FileCache] is the on-disk implementation used by the CLI. [NullCache]
// disables caching entirely.
package cache

import (
	"context"
	"time"
)

// Default lifetimes per entry kind.
const (
	// TTLResource bounds how long a downloaded image is reused.
	TTLResource = 24 * time.Hour

	// TTLArtifact bounds how long a rendered export is reused. Artifacts are
	// keyed by content hash, so this only limits disk growth.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte store keyed by string.
//
// Get reports a miss with ok == false and a nil error. Implementations must be
// safe for concurrent use; the resource loader calls Get and Set from its
// worker goroutines.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
