package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/memeforge/pkg/canvas"
	errs "github.com/matzehuels/memeforge/pkg/errors"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.AssetRoot != "." || c.Fill != canvas.FillBlank || c.TextureSeed != 42 {
		t.Errorf("defaults = %+v", c)
	}
	if c.CacheTTL.Duration != 24*time.Hour {
		t.Errorf("cache_ttl = %v", c.CacheTTL)
	}
	if len(c.Catalog().Templates) != 10 || len(c.Catalog().Stickers) != 16 {
		t.Error("default catalog should be the built-in one")
	}
	if got := c.State().Size; got != (canvas.Size{Width: 1024, Height: 1024}) {
		t.Errorf("state size = %+v", got)
	}
}

func TestZeroTextureSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("texture_seed = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.TextureSeed != 0 {
		t.Errorf("texture_seed = %d, want an explicit 0 kept", c.TextureSeed)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
asset_root = "/srv/memes"
width = 1600
height = 100
fill = "classic"
texture_seed = 7
jitter = true
share_base = "https://memes.example/"
cache_ttl = "48h"

[[stickers]]
name = "party"
ref = "/predefined/party.png"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Path != path || c.AssetRoot != "/srv/memes" || !c.Jitter || c.TextureSeed != 7 {
		t.Errorf("config = %+v", c)
	}
	if c.CacheTTL.Duration != 48*time.Hour {
		t.Errorf("cache_ttl = %v", c.CacheTTL)
	}
	if got := c.Size(); got != (canvas.Size{Width: 1600, Height: 256}) {
		t.Errorf("size = %+v, want height floored", got)
	}
	st := c.State()
	if st.Fill != canvas.FillClassic {
		t.Errorf("state fill = %q", st.Fill)
	}

	cat := c.Catalog()
	if len(cat.Stickers) != 1 || cat.Stickers[0].Name != "party" {
		t.Errorf("stickers = %+v, want the configured list only", cat.Stickers)
	}
	if len(cat.Templates) != 10 {
		t.Error("templates should keep the built-in list")
	}
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("missing default config should not fail: %v", err)
	}
	if c.Path != "" {
		t.Errorf("Path = %q, want empty", c.Path)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("an explicit missing path should fail")
	}
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		code errs.Code
	}{
		{"syntax", `width = `, errs.ErrCodeInvalidFormat},
		{"unknown key", `colour = "red"`, errs.ErrCodeInvalidInput},
		{"fill", `fill = "neon"`, errs.ErrCodeInvalidInput},
		{"negative size", `width = -5`, errs.ErrCodeInvalidInput},
		{"share base", `share_base = "ftp://x"`, errs.ErrCodeInvalidInput},
		{"bad ref", "[[templates]]\nname = \"x\"\nref = \"../../etc/passwd\"", errs.ErrCodeInvalidRef},
		{"nameless", "[[stickers]]\nref = \"/a.png\"", errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.data), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if !errs.Is(err, tt.code) {
				t.Errorf("Load err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	if got := DefaultPath(); got != filepath.Join("/cfg", "memeforge", "config.toml") {
		t.Errorf("DefaultPath = %q", got)
	}
}
