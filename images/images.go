// Package images loads card images from the service's image endpoint.
//
// The Loader funnels every request through an in-memory byte cache with
// stampede protection, so one image on screen in many places costs one
// request. A worker pool serves the asynchronous path, and an optional disk
// cache persists fetched images between runs.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/guldfisk/cubeclient-go/client"
	"github.com/guldfisk/cubeclient-go/internal/imagecache"
	"github.com/guldfisk/cubeclient-go/internal/pool"
	"github.com/guldfisk/cubeclient-go/promise"
)

// ErrClosed is the rejection of promises returned by a closed loader.
var ErrClosed = errors.New("images: loader closed")

// SizeSlug selects a rendered image size.
type SizeSlug string

const (
	SizeOriginal  SizeSlug = "original"
	SizeMedium    SizeSlug = "medium"
	SizeSmall     SizeSlug = "small"
	SizeThumbnail SizeSlug = "thumbnail"
)

// Request identifies one image.
type Request struct {
	// Identifier is the printing id or pictured name the service resolves.
	Identifier string
	// Size selects the rendered size. Empty means SizeOriginal.
	Size SizeSlug
	// Cropped requests the art crop instead of the full card.
	Cropped bool
	// Back requests the back face.
	Back bool
	// PicturedType names the pictured entity type, such as "Printing".
	// Empty means "Printing".
	PicturedType string
}

func (r Request) withDefaults() Request {
	if r.Size == "" {
		r.Size = SizeOriginal
	}
	if r.PicturedType == "" {
		r.PicturedType = "Printing"
	}
	return r
}

// key is the cache key of the request; all request fields participate.
func (r Request) key() string {
	return fmt.Sprintf("%s:%s:%s:%t:%t", r.PicturedType, r.Identifier, r.Size, r.Cropped, r.Back)
}

// fileName is the disk cache name of the request, derived from the cache key
// with path-hostile characters replaced.
func (r Request) fileName() string {
	return strings.NewReplacer("/", "_", ":", "-", " ", "_").Replace(r.key()) + ".img"
}

// Config configures a Loader.
type Config struct {
	// Workers is the worker pool size serving the asynchronous path.
	// Default: 8
	Workers int

	// Cache configures the in-memory byte cache. The zero value uses
	// imagecache.DefaultConfig.
	Cache imagecache.Config

	// DiskRoot is the directory of the disk cache. Empty disables disk
	// caching regardless of the Allow flags.
	DiskRoot string
	// AllowLoadFromDisk serves images from DiskRoot before fetching.
	AllowLoadFromDisk bool
	// AllowSaveToDisk writes fetched images to DiskRoot.
	AllowSaveToDisk bool

	// HTTPClient overrides the transport. If nil, http.DefaultClient is
	// used.
	HTTPClient *http.Client

	// Logger receives structured fetch logs. If nil, logging is disabled.
	Logger *logrus.Logger

	// Metrics receives cache hit/miss instrumentation. If nil, NoopMetrics
	// is used.
	Metrics client.Metrics
}

// Loader fetches and caches card images. It is safe for concurrent use.
type Loader struct {
	scheme  string
	host    string
	http    *http.Client
	cache   imagecache.Service
	pool    *pool.Pool
	log     *logrus.Logger
	metrics client.Metrics

	diskRoot  string
	allowLoad bool
	allowSave bool
}

// NewLoader builds a Loader fetching from the service c talks to.
func NewLoader(c client.Client, cfg Config) (*Loader, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}

	cacheCfg := cfg.Cache
	if cacheCfg == (imagecache.Config{}) {
		cacheCfg = imagecache.DefaultConfig()
	}
	cache, err := imagecache.New(cacheCfg)
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = client.NoopMetrics{}
	}

	return &Loader{
		scheme:    c.Scheme(),
		host:      c.Host(),
		http:      httpClient,
		cache:     cache,
		pool:      pool.New(workers),
		log:       log,
		metrics:   metrics,
		diskRoot:  cfg.DiskRoot,
		allowLoad: cfg.AllowLoadFromDisk && cfg.DiskRoot != "",
		allowSave: cfg.AllowSaveToDisk && cfg.DiskRoot != "",
	}, nil
}

// Close shuts down the worker pool serving the asynchronous path.
func (l *Loader) Close() {
	l.pool.Close()
}

// Image returns the encoded image for req, from the in-memory cache, the
// disk cache, or the service, in that order.
func (l *Loader) Image(ctx context.Context, req Request) ([]byte, error) {
	req = req.withDefaults()
	fetched := false
	data, err := l.cache.GetOrFetch(ctx, req.key(), func(ctx context.Context) ([]byte, error) {
		fetched = true
		l.metrics.CacheMiss()
		return l.load(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if !fetched {
		l.metrics.CacheHit()
	}
	return data, nil
}

// ImageAsync resolves the image for req on the loader's worker pool. The
// promise rejects with ErrClosed when the loader is closed before the fetch
// runs.
func (l *Loader) ImageAsync(ctx context.Context, req Request) *promise.Promise[[]byte] {
	p := promise.New[[]byte]()
	if !l.pool.SubmitAbortable(
		func() { p.Settle(l.Image(ctx, req)) },
		func() { p.Reject(ErrClosed) },
	) {
		p.Reject(ErrClosed)
	}
	return p
}

// Prefetch warms the cache for all reqs, fetching at most parallelism images
// at a time (non-positive means 4). It returns the first failure, after all
// started fetches finish.
func (l *Loader) Prefetch(ctx context.Context, reqs []Request, parallelism int) error {
	if parallelism <= 0 {
		parallelism = 4
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for _, req := range reqs {
		g.Go(func() error {
			_, err := l.Image(ctx, req)
			return err
		})
	}
	return g.Wait()
}

// load serves a cache miss: disk first when allowed, then the service.
func (l *Loader) load(ctx context.Context, req Request) ([]byte, error) {
	if l.allowLoad {
		if data, err := os.ReadFile(filepath.Join(l.diskRoot, req.fileName())); err == nil {
			l.log.WithField("key", req.key()).Debug("image served from disk")
			return data, nil
		}
	}

	data, err := l.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	if l.allowSave {
		if err := os.WriteFile(filepath.Join(l.diskRoot, req.fileName()), data, 0o644); err != nil {
			l.log.WithError(err).WithField("key", req.key()).Warn("writing image to disk")
		}
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, req Request) ([]byte, error) {
	query := url.Values{}
	query.Set("size_slug", string(req.Size))
	query.Set("cropped", strconv.FormatBool(req.Cropped))
	query.Set("back", strconv.FormatBool(req.Back))
	query.Set("type", req.PicturedType)

	u := url.URL{
		Scheme:   l.scheme,
		Host:     l.host,
		Path:     "/api/images/" + req.Identifier + "/",
		RawQuery: query.Encode(),
	}
	rawURL := u.String()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("images: %w", err)
	}

	l.log.WithFields(logrus.Fields{"url": rawURL, "key": req.key()}).Debug("fetching image")

	resp, err := l.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("images: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("images: fetching %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("images: reading %s: %w", rawURL, err)
	}
	return data, nil
}
