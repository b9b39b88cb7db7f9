package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Run("home fallback", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")
		dir, err := cacheDir()
		if err != nil {
			t.Fatalf("cacheDir() error: %v", err)
		}
		home, _ := os.UserHomeDir()
		if want := filepath.Join(home, ".cache", appName); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})

	t.Run("XDG_CACHE_HOME", func(t *testing.T) {
		custom := t.TempDir()
		t.Setenv("XDG_CACHE_HOME", custom)
		dir, err := cacheDir()
		if err != nil {
			t.Fatalf("cacheDir() error: %v", err)
		}
		if want := filepath.Join(custom, appName); dir != want {
			t.Errorf("cacheDir() = %q, want %q", dir, want)
		}
	})
}

func TestCachePathCommand(t *testing.T) {
	c := newTestCLI(t)
	out, err := runCLI(t, c, "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	want, _ := cacheDir()
	if strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
}

func TestCacheClearCommand(t *testing.T) {
	c := newTestCLI(t)
	src := stateFile(t, captionState())

	// a cached render leaves entries behind
	if _, err := runCLI(t, c, "render", src, "-o", filepath.Join(t.TempDir(), "m.png")); err != nil {
		t.Fatalf("render: %v", err)
	}
	dir, _ := cacheDir()
	if n := countFiles(t, dir); n == 0 {
		t.Fatal("render should populate the cache")
	}

	if _, err := runCLI(t, c, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if n := countFiles(t, dir); n != 0 {
		t.Errorf("%d files left after clear", n)
	}
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	_ = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}
