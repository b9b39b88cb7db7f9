// Package resource resolves image refs to decoded images without blocking
// the paint loop.
//
// A ref is an http(s) URL, a session-local "blob:<id>" registered with
// [Loader.Register], or a path resolved against the asset root (catalog refs
// such as "/templates/paper.jpg" live there).
//
// The compositor calls [Loader.Lookup] during a paint. A ref that is not
// ready yet is handed to [Loader.Request], which loads it on a background
// goroutine and posts a [Ready] event on [Loader.Events] when done. The
// editor repaints on that event only if the ref is still in use.
//
// Batch callers skip the event loop and call [Loader.Preload] before
// rendering.
package resource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	// registers webp with image.Decode
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/memeforge/pkg/buildinfo"
	"github.com/matzehuels/memeforge/pkg/cache"
	errs "github.com/matzehuels/memeforge/pkg/errors"
	"github.com/matzehuels/memeforge/pkg/observability"
)

// Status is the load state of a ref.
type Status int

const (
	StatusPending Status = iota // not requested, or in flight
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Ready reports a finished load. Err is nil on success.
type Ready struct {
	Ref string
	Err error
}

// Defaults.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBytes    = 32 << 20
	DefaultEventBuffer = 64
	DefaultParallelism = 4
)

// ErrNotReady is returned by Image for refs that have not loaded.
var ErrNotReady = errors.New("resource not ready")

type entry struct {
	status Status
	img    image.Image
	digest string
	err    error
}

// Loader resolves and caches decoded images. It is safe for concurrent use.
type Loader struct {
	root     string
	client   *http.Client
	cache    cache.Cache
	keyer    cache.Keyer
	ttl      time.Duration
	timeout  time.Duration
	maxBytes int64
	logger   *log.Logger

	mu       sync.Mutex
	entries  map[string]*entry
	inflight map[string]bool

	group  singleflight.Group
	events chan Ready

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithAssetRoot sets the directory that path refs are resolved against.
func WithAssetRoot(dir string) Option {
	return func(l *Loader) { l.root = dir }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithCache stores downloaded bytes in c under keys from keyer.
// A nil keyer uses cache.DefaultKeyer.
func WithCache(c cache.Cache, keyer cache.Keyer, ttl time.Duration) Option {
	return func(l *Loader) {
		l.cache = c
		l.keyer = keyer
		l.ttl = ttl
	}
}

// WithTimeout bounds a single background load.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

// WithMaxBytes rejects remote images larger than n bytes.
func WithMaxBytes(n int64) Option {
	return func(l *Loader) { l.maxBytes = n }
}

// WithEventBuffer sizes the Events channel.
func WithEventBuffer(n int) Option {
	return func(l *Loader) { l.events = make(chan Ready, n) }
}

// WithLogger sets the logger. Load failures are logged at debug level.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader returns a loader. Call Close to stop background loads.
func NewLoader(opts ...Option) *Loader {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loader{
		root:     ".",
		timeout:  DefaultTimeout,
		maxBytes: DefaultMaxBytes,
		ttl:      cache.TTLResource,
		entries:  make(map[string]*entry),
		inflight: make(map[string]bool),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.client == nil {
		l.client = &http.Client{Timeout: l.timeout}
	}
	if l.cache == nil {
		l.cache = cache.NewNullCache()
	}
	if l.keyer == nil {
		l.keyer = cache.NewDefaultKeyer()
	}
	if l.events == nil {
		l.events = make(chan Ready, DefaultEventBuffer)
	}
	if l.logger == nil {
		l.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return l
}

// =============================================================================
// Non-blocking API
// =============================================================================

// Lookup returns the image for ref if it has loaded. It never blocks on I/O.
func (l *Loader) Lookup(ref string) (image.Image, Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[ref]; ok {
		return e.img, e.status
	}
	return nil, StatusPending
}

// Err returns the load error of a failed ref.
func (l *Loader) Err(ref string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[ref]; ok {
		return e.err
	}
	return nil
}

// Request starts loading ref in the background unless it is already loaded,
// failed or in flight. Completion is posted on Events.
func (l *Loader) Request(ref string) {
	l.mu.Lock()
	if l.closed || l.inflight[ref] {
		l.mu.Unlock()
		return
	}
	if e, ok := l.entries[ref]; ok && e.status != StatusPending {
		l.mu.Unlock()
		return
	}
	l.inflight[ref] = true
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(l.ctx, l.timeout)
		defer cancel()

		_, err := l.Load(ctx, ref)

		l.mu.Lock()
		delete(l.inflight, ref)
		l.mu.Unlock()
		l.post(Ready{Ref: ref, Err: err})
	}()
}

// Events delivers one Ready per finished background load. Events are
// dropped when nobody drains the channel and its buffer is full.
func (l *Loader) Events() <-chan Ready {
	return l.events
}

func (l *Loader) post(ev Ready) {
	select {
	case <-l.ctx.Done():
	case l.events <- ev:
	default:
		l.logger.Debug("ready event dropped", "ref", ev.Ref)
	}
}

// Register stores a decoded image under a fresh "blob:" ref. Blob refs live
// only as long as the loader.
func (l *Loader) Register(img image.Image) string {
	return l.register(img, "")
}

func (l *Loader) register(img image.Image, digest string) string {
	ref := errs.SchemeBlob + uuid.NewString()
	if digest == "" {
		digest = ref
	}
	l.mu.Lock()
	l.entries[ref] = &entry{status: StatusReady, img: img, digest: digest}
	l.mu.Unlock()
	return ref
}

// RegisterFile decodes the image at path and registers it as a blob. The
// blob's digest is the hash of the file bytes.
func (l *Loader) RegisterFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeResourceNotFound, err, "read %s", path)
	}
	img, err := decode(data)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeResourceDecode, err, "decode %s", path)
	}
	return l.register(img, cache.Hash(data)), nil
}

// Digest identifies the bytes a ready ref was decoded from. It is empty for
// refs that are not ready.
func (l *Loader) Digest(ref string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[ref]; ok && e.status == StatusReady {
		return e.digest
	}
	return ""
}

// Forget drops ref so the next Request loads it again.
func (l *Loader) Forget(ref string) {
	l.mu.Lock()
	delete(l.entries, ref)
	l.mu.Unlock()
}

// =============================================================================
// Blocking API
// =============================================================================

// Image returns a loaded image or ErrNotReady.
func (l *Loader) Image(ref string) (image.Image, error) {
	img, status := l.Lookup(ref)
	switch status {
	case StatusReady:
		return img, nil
	case StatusFailed:
		return nil, l.Err(ref)
	default:
		return nil, ErrNotReady
	}
}

// Load resolves ref synchronously and records the result. Concurrent loads
// of the same ref share one fetch.
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	if img, status := l.Lookup(ref); status == StatusReady {
		return img, nil
	}

	v, err, _ := l.group.Do(ref, func() (any, error) {
		start := time.Now()
		observability.Resource().OnLoadStart(ctx, ref)
		img, digest, err := l.fetch(ctx, ref)
		observability.Resource().OnLoadComplete(ctx, ref, time.Since(start), err)

		l.mu.Lock()
		if err != nil {
			l.entries[ref] = &entry{status: StatusFailed, err: err}
		} else {
			l.entries[ref] = &entry{status: StatusReady, img: img, digest: digest}
		}
		l.mu.Unlock()

		if err != nil {
			l.logger.Debug("image load failed", "ref", ref, "err", err)
			return nil, err
		}
		l.logger.Debug("image loaded", "ref", ref, "duration", time.Since(start))
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// Preload loads refs in parallel and waits for all of them. Every ref ends up
// Ready or Failed; the returned error joins the individual failures.
func (l *Loader) Preload(ctx context.Context, refs []string) error {
	var (
		mu     sync.Mutex
		failed []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultParallelism)
	for _, ref := range refs {
		g.Go(func() error {
			if _, err := l.Load(gctx, ref); err != nil {
				mu.Lock()
				failed = append(failed, fmt.Errorf("%s: %w", ref, err))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(failed...)
}

// Close cancels background loads, waits for them and closes Events.
func (l *Loader) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()
	close(l.events)
	return nil
}

// =============================================================================
// Fetching
// =============================================================================

func (l *Loader) fetch(ctx context.Context, ref string) (image.Image, string, error) {
	if err := errs.ValidateRef(ref); err != nil {
		return nil, "", err
	}

	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(ref, errs.SchemeBlob):
		// registered blobs are stored ready; reaching here means unknown
		return nil, "", errs.New(errs.ErrCodeResourceNotFound, "unknown blob %s", ref)
	case strings.HasPrefix(ref, errs.SchemeHTTP), strings.HasPrefix(ref, errs.SchemeHTTPS):
		data, err = l.fetchRemote(ctx, ref)
	default:
		data, err = l.readLocal(ref)
	}
	if err != nil {
		return nil, "", err
	}

	img, err := decode(data)
	if err != nil {
		return nil, "", errs.Wrap(errs.ErrCodeResourceDecode, err, "decode %s", ref)
	}
	return img, cache.Hash(data), nil
}

func decode(data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}

// readLocal resolves a path ref. Paths are looked up under the asset root
// first; an absolute path that is not there is tried as-is.
func (l *Loader) readLocal(ref string) ([]byte, error) {
	if err := errs.ValidatePath(ref); err != nil {
		return nil, err
	}
	candidates := []string{filepath.Join(l.root, filepath.FromSlash(ref))}
	if filepath.IsAbs(ref) {
		candidates = append(candidates, ref)
	}

	var lastErr error
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, errs.Wrap(errs.ErrCodeResourceNotFound, lastErr, "read %s", ref)
}

func (l *Loader) fetchRemote(ctx context.Context, ref string) ([]byte, error) {
	key := l.keyer.ResourceKey(ref)
	if data, hit, err := l.cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "resource")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "resource")

	var data []byte
	err := cache.RetryWithBackoff(ctx, 3, 500*time.Millisecond, func() error {
		var err error
		data, err = l.get(ctx, ref)
		return err
	})
	if err != nil {
		return nil, classify(ref, err)
	}

	if err := l.cache.Set(ctx, key, data, l.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "resource", len(data))
	}
	return data, nil
}

func (l *Loader) get(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: %w", cache.ErrNetwork, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, cache.ErrNotFound
	case resp.StatusCode >= 500:
		return nil, cache.Retryable(fmt.Errorf("%w: status %d", cache.ErrNetwork, resp.StatusCode))
	default:
		return nil, fmt.Errorf("%w: status %d", cache.ErrNetwork, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBytes+1))
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: %w", cache.ErrNetwork, err))
	}
	if int64(len(data)) > l.maxBytes {
		return nil, errs.New(errs.ErrCodeTooLarge, "%s exceeds %d bytes", ref, l.maxBytes)
	}
	return data, nil
}

// classify maps transport errors onto error codes.
func classify(ref string, err error) error {
	var coded *errs.Error
	switch {
	case errors.As(err, &coded):
		return err
	case errors.Is(err, cache.ErrNotFound):
		return errs.Wrap(errs.ErrCodeResourceNotFound, err, "fetch %s", ref)
	case errors.Is(err, context.DeadlineExceeded):
		return errs.Wrap(errs.ErrCodeTimeout, err, "fetch %s", ref)
	default:
		return errs.Wrap(errs.ErrCodeNetwork, err, "fetch %s", ref)
	}
}
