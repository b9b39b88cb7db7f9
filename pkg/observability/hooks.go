// Package observability lets a host program watch renders, resource loads and
// cache traffic without the libraries importing a metrics backend.
//
// Hooks are registered once at startup; libraries call the registered hooks
// through the package accessors:
//
//	observability.SetRenderHooks(&timingHooks{})
//
//	observability.Render().OnRenderStart(ctx, w, h, len(layers))
//	// ... paint ...
//	observability.Render().OnRenderComplete(ctx, w, h, time.Since(start))
//
// Every hook set defaults to a no-op implementation.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives compositor and export events.
type RenderHooks interface {
	OnRenderStart(ctx context.Context, width, height, layers int)
	OnRenderComplete(ctx context.Context, width, height int, duration time.Duration)

	// OnExport fires after an artifact has been produced by the export pipeline.
	OnExport(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// =============================================================================
// Resource Hooks
// =============================================================================

// ResourceHooks receives image resolution events from the resource loader.
type ResourceHooks interface {
	OnLoadStart(ctx context.Context, ref string)
	OnLoadComplete(ctx context.Context, ref string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
// keyType is the key namespace, e.g. "resource" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnRenderStart(context.Context, int, int, int)                {}
func (NoopRenderHooks) OnRenderComplete(context.Context, int, int, time.Duration)   {}
func (NoopRenderHooks) OnExport(context.Context, string, int, time.Duration, error) {}

// NoopResourceHooks is a no-op implementation of ResourceHooks.
type NoopResourceHooks struct{}

func (NoopResourceHooks) OnLoadStart(context.Context, string)                          {}
func (NoopResourceHooks) OnLoadComplete(context.Context, string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	renderHooks   RenderHooks   = NoopRenderHooks{}
	resourceHooks ResourceHooks = NoopResourceHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetRenderHooks registers render hooks. Nil is ignored.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetResourceHooks registers resource hooks. Nil is ignored.
func SetResourceHooks(h ResourceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		resourceHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Resource returns the registered resource hooks.
func Resource() ResourceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return resourceHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	renderHooks = NoopRenderHooks{}
	resourceHooks = NoopResourceHooks{}
	cacheHooks = NoopCacheHooks{}
}
