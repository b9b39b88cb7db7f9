package cli

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/memeforge/pkg/canvas"
	"github.com/matzehuels/memeforge/pkg/pipeline"
)

// renderFlags holds the command-line flags for the render command that do
// not map one-to-one onto pipeline.Options.
type renderFlags struct {
	output  string // output file (single format) or base path (multiple)
	formats string // comma-separated formats
	width   string // raw width, coerced like the editor's size fields
	height  string
	noCache bool
	seed    uint64
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [state.json|link|token|-]",
		Short: "Render a meme to PNG and other formats",
		Long: `Render a meme to PNG and other formats.

The source is a state file, a share link, a bare token or "-" for a state
document on stdin. Without a source the configured blank canvas is used.
Flags are applied on top of the source in this order: size, preset, fill,
template, upload, stickers, face.

Images that cannot be loaded are skipped with a warning; the export still
succeeds. Finished PNGs are cached, so re-rendering an unchanged meme is
instant.`,
		Example: `  memeforge render --template Paper --sticker pic3 --face -o out.png
  memeforge render meme.json -f png,link,qr -o build/meme
  memeforge render 'https://memes.example/#s=eyJ3aWR0aCI6...' --preset 16:9`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := c.baseOptions()
			if len(args) == 1 {
				base.Source = args[0]
			}
			if err := mergeRenderFlags(cmd, &base, opts, flags); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), base, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): png (default), json, token, link, qr (comma-separated)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")

	cmd.Flags().StringVar(&flags.width, "width", "", "canvas width in pixels (minimum 256)")
	cmd.Flags().StringVar(&flags.height, "height", "", "canvas height in pixels (minimum 256)")
	cmd.Flags().StringVar(&opts.Preset, "preset", "", "canvas preset: 1:1, 16:9, 9:16, 3:1")
	cmd.Flags().StringVar(&opts.Fill, "fill", "", "background fill: blank, classic, dark")
	cmd.Flags().StringVar(&opts.Template, "template", "", "template name from the catalog, or an image ref")
	cmd.Flags().StringVar(&opts.Upload, "upload", "", "local image used as the background (wins over the template)")
	cmd.Flags().StringArrayVar(&opts.Stickers, "sticker", nil, "sticker name, image ref or local file (repeatable)")
	cmd.Flags().BoolVar(&opts.Face, "face", false, "add the mascot face on top")

	cmd.Flags().Uint64Var(&flags.seed, "seed", 0, "seed for the classic fill texture (default from config)")
	cmd.Flags().BoolVar(&opts.Jitter, "jitter", false, "vary the classic texture on every render")
	cmd.Flags().StringVar(&opts.ShareBase, "share-base", "", "base URL for link and qr formats (default from config)")
	cmd.Flags().IntVar(&opts.QRSize, "qr-size", pipeline.DefaultQRSize, "QR code size in pixels")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached exports")

	return cmd
}

// mergeRenderFlags copies flags that were set onto base, which already
// carries the config defaults.
func mergeRenderFlags(cmd *cobra.Command, base *pipeline.Options, flagOpts pipeline.Options, flags renderFlags) error {
	base.Formats = parseFormats(flags.formats)
	if err := pipeline.ValidateFormats(base.Formats); err != nil {
		return err
	}

	if flags.width != "" {
		base.Width = canvas.ParseDimension(flags.width)
	}
	if flags.height != "" {
		base.Height = canvas.ParseDimension(flags.height)
	}
	base.Preset = flagOpts.Preset
	base.Fill = flagOpts.Fill
	base.Template = flagOpts.Template
	base.Upload = flagOpts.Upload
	base.Stickers = flagOpts.Stickers
	base.Face = flagOpts.Face
	base.QRSize = flagOpts.QRSize
	base.Refresh = flagOpts.Refresh

	if cmd.Flags().Changed("seed") {
		base.TextureSeed = pipeline.Seed(flags.seed)
	}
	if cmd.Flags().Changed("jitter") {
		base.Jitter = flagOpts.Jitter
	}
	if flagOpts.ShareBase != "" {
		base.ShareBase = flagOpts.ShareBase
	}
	return nil
}

// runRender executes the pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, flags renderFlags) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = logger
	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	prog.step("pipeline finished",
		"prepare", result.Stats.PrepareTime.Round(time.Millisecond),
		"resolve", result.Stats.ResolveTime.Round(time.Millisecond),
		"render", result.Stats.RenderTime.Round(time.Millisecond))

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     opts.Source,
		output:    flags.output,
		now:       time.Now(),
	})
	if err != nil {
		return err
	}
	prog.done("rendered", "artifacts", len(paths), "cached", result.CacheInfo.RenderHit)

	printSuccess("Render complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats, result.CacheInfo.RenderHit)
	for _, ref := range result.Missing {
		printWarning("skipped image %s", ref)
	}
	if i := slices.Index(opts.Formats, pipeline.FormatJSON); i >= 0 {
		printNextStep("Share it", appName+" share "+paths[i])
	}
	return nil
}

// =============================================================================
// Output
// =============================================================================

type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string    // source argument, used to derive a file name
	output    string    // -o value
	now       time.Time // names exports without a source
}

// writeArtifacts writes each artifact and returns the paths in format order.
//
// With a single format the output path is used as given. With several, it
// is a base path and each format adds its extension. Without -o, the base
// is the source file name, or meme-<unix ms> when the source is not a file.
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	if len(p.formats) == 1 && p.output != "" {
		data := p.artifacts[p.formats[0]]
		if err := writeFile(p.output, data); err != nil {
			return nil, err
		}
		return []string{p.output}, nil
	}

	base := basePath(p.output, p.input, p.now)
	paths := make([]string, 0, len(p.formats))
	for _, format := range p.formats {
		path := base + pipeline.FormatExtensions[format]
		if path == p.input {
			return nil, fmt.Errorf("refusing to overwrite %s; pass -o", path)
		}
		if err := writeFile(path, p.artifacts[format]); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// basePath derives the output base path. Known format extensions on the
// output are stripped so "-o meme.png -f png,json" writes meme.png and
// meme.json.
func basePath(output, input string, now time.Time) string {
	if output != "" {
		exts := slices.Collect(maps.Values(pipeline.FormatExtensions))
		// longest first, so ".qr.png" wins over ".png"
		slices.SortFunc(exts, func(a, b string) int { return len(b) - len(a) })
		for _, ext := range exts {
			if strings.HasSuffix(output, ext) {
				return strings.TrimSuffix(output, ext)
			}
		}
		return output
	}
	if input != "" && input != "-" {
		if info, err := os.Stat(input); err == nil && !info.IsDir() {
			return strings.TrimSuffix(input, filepath.Ext(input))
		}
	}
	return fmt.Sprintf("%s%d", downloadPrefix, now.UnixMilli())
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
