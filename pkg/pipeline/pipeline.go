// Package pipeline provides the batch export pipeline used by the CLI.
//
// A run has three stages:
//
//  1. Prepare: load the input state (state file, share link, token or a blank
//     canvas) and apply command-line overrides such as a template, an upload
//     or extra stickers.
//  2. Resolve: load every image the state references so the paint never sees
//     a pending ref.
//  3. Render: produce the requested artifacts (PNG, state JSON, token, link,
//     QR code).
//
// Rendered artifacts are cached by a hash of the state and the bytes of
// every image it uses, so re-exporting an unchanged meme is a cache read.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	defer runner.Close()
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:   "meme.json",
//	    Template: "Paper",
//	    Formats:  []string{"png", "link"},
//	})
//	if err != nil {
//	    return err
//	}
//	png := result.Artifacts["png"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/memeforge/pkg/cache"
	"github.com/matzehuels/memeforge/pkg/canvas"
	errs "github.com/matzehuels/memeforge/pkg/errors"
	"github.com/matzehuels/memeforge/pkg/render"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultShareBase is used for links when no base is configured.
	DefaultShareBase = "https://memeforge.invalid/"

	// DefaultQRSize is the side of the QR code image in pixels.
	DefaultQRSize = 512
)

// Format constants for output formats.
const (
	FormatPNG   = "png"
	FormatJSON  = "json"
	FormatToken = "token"
	FormatLink  = "link"
	FormatQR    = "qr"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:   true,
	FormatJSON:  true,
	FormatToken: true,
	FormatLink:  true,
	FormatQR:    true,
}

// FormatExtensions maps formats to output file extensions.
var FormatExtensions = map[string]string{
	FormatPNG:   ".png",
	FormatJSON:  ".json",
	FormatToken: ".token.txt",
	FormatLink:  ".link.txt",
	FormatQR:    ".qr.png",
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one export.
type Options struct {
	// Input. An empty Source starts from Base.
	Source string       `json:"source,omitempty"`
	Base   canvas.State `json:"-"`

	// Overrides applied after loading.
	Width    int      `json:"width,omitempty"`
	Height   int      `json:"height,omitempty"`
	Preset   string   `json:"preset,omitempty"`
	Fill     string   `json:"fill,omitempty"`
	Template string   `json:"template,omitempty"` // catalog name or ref
	Upload   string   `json:"upload,omitempty"`   // local image file
	Stickers []string `json:"stickers,omitempty"` // catalog names, refs or local files
	Face     bool     `json:"face,omitempty"`

	// Render options
	Formats     []string `json:"formats,omitempty"`
	TextureSeed *uint64  `json:"texture_seed,omitempty"` // nil uses render.DefaultTextureSeed
	Jitter      bool     `json:"jitter,omitempty"`
	ShareBase   string   `json:"share_base,omitempty"`
	QRSize      int      `json:"qr_size,omitempty"`
	Refresh     bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// State is the prepared canvas state that was rendered.
	State canvas.State

	// StateHash identifies State and the image bytes it uses.
	StateHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Missing lists refs that failed to load and were skipped.
	Missing []string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Layers      int
	Images      int
	PrepareTime time.Duration
	ResolveTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool // all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid format: %q (must be one of: png, json, token, link, qr)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFill checks that a fill name is valid. Empty means unchanged.
func ValidateFill(fill string) error {
	if fill != "" && !canvas.ValidFills[canvas.Fill(fill)] {
		return errs.New(errs.ErrCodeInvalidInput, "invalid fill: %q (must be one of: blank, classic, dark)", fill)
	}
	return nil
}

// ValidatePreset checks that a preset label is known. Empty means unchanged.
func ValidatePreset(label string) error {
	if label == "" {
		return nil
	}
	if _, ok := canvas.LookupPreset(label); !ok {
		return errs.New(errs.ErrCodeInvalidInput, "invalid preset: %q (must be one of: 1:1, 16:9, 9:16, 3:1)", label)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	if o.TextureSeed == nil {
		o.TextureSeed = Seed(render.DefaultTextureSeed)
	}
	if o.ShareBase == "" {
		o.ShareBase = DefaultShareBase
	}
	if o.QRSize <= 0 {
		o.QRSize = DefaultQRSize
	}
	if o.Base.Size == (canvas.Size{}) {
		o.Base = canvas.Default()
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateFill(o.Fill); err != nil {
		return err
	}
	if err := ValidatePreset(o.Preset); err != nil {
		return err
	}
	if o.Width < 0 || o.Height < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "width and height cannot be negative")
	}
	if err := errs.ValidateURL(o.ShareBase); err != nil {
		return fmt.Errorf("share base: %w", err)
	}
	o.validated = true
	return nil
}

// Wants reports whether format was requested.
func (o *Options) Wants(format string) bool {
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Seed returns the texture seed, or the default when none is set.
func (o *Options) Seed() uint64 {
	if o.TextureSeed == nil {
		return render.DefaultTextureSeed
	}
	return *o.TextureSeed
}

// Seed returns a pointer to v for Options.TextureSeed.
func Seed(v uint64) *uint64 { return &v }

// ArtifactKeyOpts returns cache key options for format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatPNG:
		opts.TextureSeed = o.Seed()
	case FormatLink:
		opts.ShareBase = o.ShareBase
	case FormatQR:
		opts.ShareBase = o.ShareBase
		opts.Size = o.QRSize
	}
	return opts
}
