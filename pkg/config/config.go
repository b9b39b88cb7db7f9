// Package config loads memeforge settings from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/memeforge/config.toml (or the platform
// equivalent) unless --config names another one. A missing file is not an
// error: every setting has a default.
//
//	asset_root   = "./public"
//	width        = 1600
//	height       = 900
//	fill         = "classic"
//	texture_seed = 7
//	share_base   = "https://memes.example/"
//	cache_ttl    = "48h"
//
//	[[stickers]]
//	name = "party"
//	ref  = "/predefined/party.png"
//
// Defining templates or stickers replaces the built-in list.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/memeforge/pkg/canvas"
	"github.com/matzehuels/memeforge/pkg/catalog"
	errs "github.com/matzehuels/memeforge/pkg/errors"
)

const appName = "memeforge"

// Defaults.
const (
	DefaultAssetRoot    = "."
	DefaultShareBase    = "https://memeforge.invalid/"
	DefaultCacheTTL     = 24 * time.Hour
	DefaultFetchTimeout = 30 * time.Second
	DefaultTextureSeed  = 42
)

// Duration is a time.Duration written as a string such as "90s" or "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config is the decoded settings file.
type Config struct {
	AssetRoot    string         `toml:"asset_root"`
	Width        int            `toml:"width"`
	Height       int            `toml:"height"`
	Fill         canvas.Fill    `toml:"fill"`
	TextureSeed  uint64         `toml:"texture_seed"`
	Jitter       bool           `toml:"jitter"`
	ShareBase    string         `toml:"share_base"`
	CacheTTL     Duration       `toml:"cache_ttl"`
	FetchTimeout Duration       `toml:"fetch_timeout"`
	Templates    []catalog.Item `toml:"templates"`
	Stickers     []catalog.Item `toml:"stickers"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

// Default returns the settings used when no file exists.
func Default() *Config {
	c := newConfig()
	_ = c.Validate()
	return c
}

// newConfig presets the fields whose zero value is a valid setting.
func newConfig() *Config {
	return &Config{TextureSeed: DefaultTextureSeed}
}

// Load reads the config at path. An empty path uses the default location;
// a missing file at the default location yields defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	c := newConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := c.Decode(string(data)); err != nil {
				return nil, fmt.Errorf("config %s: %w", path, err)
			}
			c.Path = path
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Decode parses TOML into c. Keys not present keep their current values.
func (c *Config) Decode(data string) error {
	md, err := toml.Decode(data, c)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInvalidFormat, err, "parse toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errs.New(errs.ErrCodeInvalidInput, "unknown setting %q", undecoded[0].String())
	}
	return nil
}

// Validate fills in defaults and rejects values that cannot work.
func (c *Config) Validate() error {
	if c.AssetRoot == "" {
		c.AssetRoot = DefaultAssetRoot
	}
	if c.Width == 0 {
		c.Width = canvas.DefaultWidth
	}
	if c.Height == 0 {
		c.Height = canvas.DefaultHeight
	}
	if c.Fill == "" {
		c.Fill = canvas.FillBlank
	}
	if c.ShareBase == "" {
		c.ShareBase = DefaultShareBase
	}
	if c.CacheTTL.Duration == 0 {
		c.CacheTTL.Duration = DefaultCacheTTL
	}
	if c.FetchTimeout.Duration == 0 {
		c.FetchTimeout.Duration = DefaultFetchTimeout
	}
	if c.Templates == nil {
		c.Templates = catalog.DefaultTemplates()
	}
	if c.Stickers == nil {
		c.Stickers = catalog.DefaultStickers()
	}

	if !canvas.ValidFills[c.Fill] {
		return errs.New(errs.ErrCodeInvalidInput, "fill must be blank, classic or dark, got %q", c.Fill)
	}
	if c.Width < 0 || c.Height < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "canvas size cannot be negative")
	}
	if c.CacheTTL.Duration < 0 || c.FetchTimeout.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "durations cannot be negative")
	}
	if err := errs.ValidateURL(c.ShareBase); err != nil {
		return fmt.Errorf("share_base: %w", err)
	}
	for _, it := range append(append([]catalog.Item(nil), c.Templates...), c.Stickers...) {
		if it.Name == "" {
			return errs.New(errs.ErrCodeInvalidInput, "catalog entry %q has no name", it.Ref)
		}
		if err := errs.ValidateRef(it.Ref); err != nil {
			return fmt.Errorf("catalog entry %q: %w", it.Name, err)
		}
	}
	return nil
}

// Size returns the configured canvas size, floored to the minimum.
func (c *Config) Size() canvas.Size {
	return canvas.Size{Width: c.Width, Height: c.Height}.Clamp()
}

// Catalog returns the configured galleries.
func (c *Config) Catalog() catalog.Catalog {
	return catalog.Catalog{Templates: c.Templates, Stickers: c.Stickers}
}

// State returns an empty canvas with the configured size and fill.
func (c *Config) State() canvas.State {
	st := canvas.Default()
	st.Size = c.Size()
	st.Fill = c.Fill
	return st
}

// DefaultPath returns the config file location, or "" when no config
// directory can be determined.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.toml")
}
