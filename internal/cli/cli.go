// Package cli implements the memeforge command-line interface.
//
// The batch commands (render, share, decode, inspect) run the export
// pipeline on a state file, a share link or a bare token. The edit command
// opens a terminal editor on the same state. The CLI is built using cobra
// and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
//   - render: export a meme to PNG, state JSON, token, link or QR code
//   - share: print or copy the share link of a state
//   - decode: turn a link or token back into a state file
//   - inspect: list layers with their bounding boxes and hit-test a point
//   - catalog: list the template and sticker galleries
//   - edit: interactive terminal editor
//   - cache: manage the remote image and export cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/buildinfo"
	"github.com/matzehuels/memeforge/pkg/cache"
	"github.com/matzehuels/memeforge/pkg/config"
	"github.com/matzehuels/memeforge/pkg/pipeline"
	"github.com/matzehuels/memeforge/pkg/resource"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "memeforge"

	// downloadPrefix names exports that have no source file to derive from.
	downloadPrefix = "meme-"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs; see setup.
	Config *config.Config

	configPath string
	in         io.Reader
	out        io.Writer
	logOut     io.Writer // where Logger writes outside the editor
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		in:     os.Stdin,
		out:    os.Stdout,
		logOut: w,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               appName,
		Short:             "Memeforge composes memes from templates, stickers and captions",
		Long:              `Memeforge is a meme editor for the terminal. It renders canvas states to PNG, turns them into shareable links and opens them in an interactive editor.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/memeforge/config.toml)")

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.shareCommand())
	root.AddCommand(c.decodeCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Cache keys are scoped by
// the asset root so projects with different template folders never share
// exports.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	store, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(c.Config.AssetRoot)
	if err != nil {
		root = c.Config.AssetRoot
	}
	keyer := cache.NewScopedKeyer(nil, "root:"+cache.Hash([]byte(root))[:12]+":")

	runner := pipeline.NewRunner(store, keyer, c.Logger,
		resource.WithAssetRoot(c.Config.AssetRoot),
		resource.WithTimeout(c.Config.FetchTimeout.Duration),
		resource.WithCache(store, keyer, c.Config.CacheTTL.Duration))
	runner.Catalog = c.Config.Catalog()
	runner.Stdin = c.in
	return runner, nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/memeforge/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// baseOptions returns pipeline options seeded from the config file.
func (c *CLI) baseOptions() pipeline.Options {
	return pipeline.Options{
		Base:        c.Config.State(),
		TextureSeed: pipeline.Seed(c.Config.TextureSeed),
		Jitter:      c.Config.Jitter,
		ShareBase:   c.Config.ShareBase,
		Logger:      c.Logger,
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatPNG}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}
