package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSetupLoadsConfig(t *testing.T) {
	c := newTestCLI(t)
	path := writeConfig(t, `
width = 1600
height = 900
fill = "dark"

[[templates]]
name = "Office"
ref = "/templates/office.png"
`)

	out, err := runCLI(t, c, "--config", path, "catalog", "--kind", "templates")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if c.Config.Width != 1600 || c.Config.Height != 900 {
		t.Errorf("size = %dx%d, want 1600x900", c.Config.Width, c.Config.Height)
	}
	if c.Config.Path != path {
		t.Errorf("Path = %q, want %q", c.Config.Path, path)
	}
	if !strings.Contains(out, "Office") {
		t.Errorf("configured template missing from output:\n%s", out)
	}
	if strings.Contains(out, "Paper") {
		t.Errorf("configured templates should replace the built-in ones:\n%s", out)
	}
}

func TestSetupDefaultsWithoutConfig(t *testing.T) {
	c := newTestCLI(t)
	if _, err := runCLI(t, c, "catalog"); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if c.Config.Width != 1024 || c.Config.Fill != "blank" {
		t.Errorf("config = %d %s, want defaults", c.Config.Width, c.Config.Fill)
	}
}

func TestSetupErrors(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
	}{
		{"missing explicit file", func(t *testing.T) []string {
			return []string{"--config", filepath.Join(t.TempDir(), "nope.toml"), "catalog"}
		}},
		{"unknown setting", func(t *testing.T) []string {
			return []string{"--config", writeConfig(t, "colour = \"red\"\n"), "catalog"}
		}},
		{"invalid fill", func(t *testing.T) []string {
			return []string{"--config", writeConfig(t, "fill = \"plaid\"\n"), "catalog"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCLI(t)
			_, err := runCLI(t, c, tt.args(t)...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), "load config") {
				t.Errorf("error %q should mention the config", err)
			}
		})
	}
}

func TestVersionFlag(t *testing.T) {
	c := newTestCLI(t)
	out, err := runCLI(t, c, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.Contains(out, appName) {
		t.Errorf("version output %q should name the app", out)
	}
}
