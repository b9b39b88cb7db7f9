package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopRenderHooks{}
	r.OnRenderStart(ctx, 1024, 1024, 3)
	r.OnRenderComplete(ctx, 1024, 1024, time.Millisecond)
	r.OnExport(ctx, "png", 2048, time.Millisecond, nil)

	l := NoopResourceHooks{}
	l.OnLoadStart(ctx, "/templates/paper.jpg")
	l.OnLoadComplete(ctx, "/templates/paper.jpg", time.Millisecond, errors.New("boom"))

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "resource")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Render().(NoopRenderHooks); !ok {
		t.Error("Render() should return NoopRenderHooks by default")
	}
	if _, ok := Resource().(NoopResourceHooks); !ok {
		t.Error("Resource() should return NoopResourceHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	render := &countingRenderHooks{}
	SetRenderHooks(render)
	Render().OnRenderStart(context.Background(), 256, 256, 0)
	if render.starts != 1 {
		t.Errorf("custom render hook called %d times, want 1", render.starts)
	}

	resource := &testResourceHooks{}
	SetResourceHooks(resource)
	if Resource() != resource {
		t.Error("SetResourceHooks should set custom hooks")
	}

	cache := &testCacheHooks{}
	SetCacheHooks(cache)
	if Cache() != cache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Render().(NoopRenderHooks); !ok {
		t.Error("Reset() should restore NoopRenderHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	custom := &countingRenderHooks{}
	SetRenderHooks(custom)
	SetRenderHooks(nil)

	if Render() != custom {
		t.Error("SetRenderHooks(nil) should be ignored")
	}
}

type countingRenderHooks struct {
	NoopRenderHooks
	starts int
}

func (h *countingRenderHooks) OnRenderStart(context.Context, int, int, int) { h.starts++ }

type testResourceHooks struct{ NoopResourceHooks }
type testCacheHooks struct{ NoopCacheHooks }
