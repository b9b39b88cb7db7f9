package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/memeforge/pkg/cache"
	"github.com/matzehuels/memeforge/pkg/canvas"
	"github.com/matzehuels/memeforge/pkg/catalog"
	"github.com/matzehuels/memeforge/pkg/editor"
	memeio "github.com/matzehuels/memeforge/pkg/io"
	"github.com/matzehuels/memeforge/pkg/layer"
	"github.com/matzehuels/memeforge/pkg/resource"
	"github.com/matzehuels/memeforge/pkg/share"
)

// Runner encapsulates pipeline execution with caching.
//
// The loader keeps decoded images between runs, so a Runner that exports
// several memes sharing a template decodes the template once. Runners are
// safe for concurrent Execute calls.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	Loader  *resource.Loader
	Catalog catalog.Catalog

	// Stdin is read when the source is "-".
	Stdin io.Reader
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// Remote images are cached in c as well; loaderOpts can override that and
// set the asset root or fetch timeout.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger, loaderOpts ...resource.Option) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	opts := append([]resource.Option{
		resource.WithCache(c, keyer, cache.TTLResource),
		resource.WithLogger(logger),
	}, loaderOpts...)
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		Loader:  resource.NewLoader(opts...),
		Catalog: catalog.Default(),
		Stdin:   os.Stdin,
	}
}

// Execute runs the complete prepare → resolve → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Prepare
	prepareStart := time.Now()
	st, err := r.Prepare(opts)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	result.State = st
	result.Stats.PrepareTime = time.Since(prepareStart)
	result.Stats.Layers = len(st.Layers)
	result.Stats.Images = len(st.Refs())

	opts.Logger.Info("prepared canvas",
		"size", fmt.Sprintf("%dx%d", st.Size.Width, st.Size.Height),
		"layers", result.Stats.Layers,
		"background", st.BackgroundSource())

	// Stage 2: Resolve
	resolveStart := time.Now()
	missing, err := r.Resolve(ctx, st, opts)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	result.Missing = missing
	result.Stats.ResolveTime = time.Since(resolveStart)
	result.StateHash = r.StateHash(st)

	opts.Logger.Info("resolved images",
		"images", result.Stats.Images,
		"missing", len(missing),
		"duration", result.Stats.ResolveTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, st, result.StateHash, len(missing) == 0, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// =============================================================================
// Prepare
// =============================================================================

// Prepare loads the source state and applies the option overrides on top of
// it, in the order size, preset, fill, template, upload, stickers, face.
func (r *Runner) Prepare(opts Options) (canvas.State, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return canvas.State{}, err
	}
	r.applyLogger(&opts)

	st := opts.Base
	if opts.Source != "" {
		var kind memeio.SourceKind
		var err error
		st, kind, err = memeio.ReadSource(opts.Source, r.Stdin)
		if err != nil {
			return canvas.State{}, err
		}
		opts.Logger.Debug("loaded source", "kind", kind, "layers", len(st.Layers))
	}

	sess := editor.New(editor.WithState(st))
	size := sess.State().Size
	if opts.Width > 0 {
		size.Width = opts.Width
	}
	if opts.Height > 0 {
		size.Height = opts.Height
	}
	sess.SetSize(size.Width, size.Height)
	if opts.Preset != "" {
		if err := sess.ApplyPreset(opts.Preset); err != nil {
			return canvas.State{}, err
		}
	}
	if opts.Fill != "" {
		if err := sess.SetFill(canvas.Fill(opts.Fill)); err != nil {
			return canvas.State{}, err
		}
	}
	if opts.Template != "" {
		ref := opts.Template
		if it, ok := r.Catalog.Template(opts.Template); ok {
			ref = it.Ref
		}
		if err := sess.SetTemplate(ref); err != nil {
			return canvas.State{}, fmt.Errorf("template: %w", err)
		}
	}
	if opts.Upload != "" {
		ref, err := r.Loader.RegisterFile(opts.Upload)
		if err != nil {
			return canvas.State{}, fmt.Errorf("upload: %w", err)
		}
		if err := sess.SetUpload(ref); err != nil {
			return canvas.State{}, fmt.Errorf("upload: %w", err)
		}
	}
	for _, s := range opts.Stickers {
		if err := r.addSticker(sess, s); err != nil {
			return canvas.State{}, fmt.Errorf("sticker %q: %w", s, err)
		}
	}
	if opts.Face {
		sess.AddFace()
	}
	return sess.State(), nil
}

// addSticker resolves name as a catalog sticker, then as a local image file,
// then as a plain ref.
func (r *Runner) addSticker(sess *editor.Session, name string) error {
	if it, ok := r.Catalog.Sticker(name); ok {
		_, err := sess.AddSticker(it)
		return err
	}
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		ref, err := r.Loader.RegisterFile(name)
		if err != nil {
			return err
		}
		base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
		_, err = sess.AddImage(ref, base)
		return err
	}
	_, err := sess.AddImage(name, "")
	return err
}

// =============================================================================
// Resolve
// =============================================================================

// Resolve loads every image st needs. Refs that fail are logged and
// returned; they render as skipped layers. Only cancellation is an error.
func (r *Runner) Resolve(ctx context.Context, st canvas.State, opts Options) ([]string, error) {
	r.applyLogger(&opts)
	refs := st.Refs()
	if err := r.Loader.Preload(ctx, refs); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		opts.Logger.Debug("preload incomplete", "err", err)
	}

	var missing []string
	for _, ref := range refs {
		if _, status := r.Loader.Lookup(ref); status != resource.StatusReady {
			opts.Logger.Warn("image skipped", "ref", ref, "err", r.Loader.Err(ref))
			missing = append(missing, ref)
		}
	}
	return missing, nil
}

// StateHash identifies what st renders to: its layers and background with
// every loaded ref replaced by the digest of its bytes. Layer ids do not
// affect the output and are left out, so re-importing the same upload or
// re-adding the same stickers maps to the same hash.
func (r *Runner) StateHash(st canvas.State) string {
	content := func(ref string) string {
		if d := r.Loader.Digest(ref); d != "" {
			return d
		}
		return ref
	}

	layers := st.Layers.Clone()
	for i := range layers {
		layers[i].ID = ""
		if img, ok := layers[i].ImageContent(); ok {
			img.Src = content(img.Src)
			layers[i].Content = img
		}
	}
	key := struct {
		Size       canvas.Size
		Fill       canvas.Fill
		Background string
		Layers     layer.List
	}{st.Size, st.Fill, content(st.ActiveBackground()), layers}

	data, err := json.Marshal(key)
	if err != nil {
		r.Logger.Debug("state not hashable", "err", err)
		return ""
	}
	return cache.Hash(data)
}

// =============================================================================
// Render
// =============================================================================

// RenderWithCacheInfo produces the requested artifacts and reports whether
// all cacheable ones came from the cache. Only PNG and QR artifacts are
// cached: the text formats are cheaper to produce than to look up. Renders
// with missing images or texture jitter are never stored.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, st canvas.State, stateHash string, complete bool, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	artifacts := make(map[string][]byte, len(opts.Formats))
	hit := true
	cached := 0

	for _, format := range opts.Formats {
		if _, done := artifacts[format]; done {
			continue
		}
		key := ""
		if h := r.artifactHash(st, stateHash, format, complete, opts); h != "" {
			cached++
			key = r.Keyer.ArtifactKey(h, opts.ArtifactKeyOpts(format))
			if !opts.Refresh {
				if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
					artifacts[format] = data
					continue
				}
			}
		}
		hit = false

		data, err := RenderFormat(ctx, r.Loader, st, format, opts)
		if err != nil {
			return nil, false, err
		}
		artifacts[format] = data
		if key != "" {
			if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
				opts.Logger.Debug("artifact not cached", "format", format, "err", err)
			}
		}
	}
	return artifacts, hit && cached > 0, nil
}

// artifactHash returns the hash an artifact is keyed by, or "" when the
// format is not cached. PNGs depend on image bytes, QR codes only on the
// portable state that goes into the link.
func (r *Runner) artifactHash(st canvas.State, stateHash, format string, complete bool, opts Options) string {
	switch format {
	case FormatPNG:
		if !complete || opts.Jitter {
			return ""
		}
		return stateHash
	case FormatQR:
		data, err := share.Marshal(st)
		if err != nil {
			return ""
		}
		return cache.Hash(data)
	default:
		return ""
	}
}

// Close releases resources held by the runner: the image loader and the cache.
func (r *Runner) Close() error {
	var loaderErr error
	if r.Loader != nil {
		loaderErr = r.Loader.Close()
	}
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil {
			return err
		}
	}
	return loaderErr
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
