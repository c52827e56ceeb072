package asyncclient

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/guldfisk/cubeclient-go/client"
	"github.com/guldfisk/cubeclient-go/internal/flight"
	"github.com/guldfisk/cubeclient-go/internal/pool"
	"github.com/guldfisk/cubeclient-go/models"
	"github.com/guldfisk/cubeclient-go/pagination"
	"github.com/guldfisk/cubeclient-go/promise"
)

// ErrClosed is the rejection of promises returned after Close.
var ErrClosed = errors.New("asyncclient: client closed")

// ExcludedOperations names the client.Client methods that are not wrapped
// asynchronously: local accessors that never perform I/O and delegate
// directly to the wrapped client.
var ExcludedOperations = []string{"Host", "Scheme", "Token", "SetToken", "User", "Logout"}

// Options configures an Async client.
type Options struct {
	// Workers is the worker pool size. Default: 5
	Workers int
	// Metrics receives managed-cache instrumentation. If nil, NoopMetrics
	// is used.
	Metrics client.Metrics
}

// Async exposes a client.Client asynchronously. All methods are safe for
// concurrent use.
type Async struct {
	sync    client.Client
	pool    *pool.Pool
	metrics client.Metrics

	releases releaseCache
}

// New wraps syncClient. The wrapped client should be configured for static
// pagination; see the package comment.
func New(syncClient client.Client, opts Options) *Async {
	workers := opts.Workers
	if workers <= 0 {
		workers = 5
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = client.NoopMetrics{}
	}
	return &Async{
		sync:    syncClient,
		pool:    pool.New(workers),
		metrics: metrics,
		releases: releaseCache{
			entries: make(map[int64]*models.CubeRelease),
		},
	}
}

// Sync returns the wrapped synchronous client.
func (a *Async) Sync() client.Client {
	return a.sync
}

// Close shuts down the worker pool. Running operations finish; queued ones
// reject their promises with ErrClosed, as do later submissions. No promise
// handed out before Close is left unsettled.
func (a *Async) Close() {
	a.pool.Close()
}

// submit schedules fn on the pool and returns a promise settling with its
// outcome. The promise rejects with ErrClosed when the pool is already
// closed or shuts down before fn runs.
func submit[T any](a *Async, fn func() (T, error)) *promise.Promise[T] {
	p := promise.New[T]()
	if !a.pool.SubmitAbortable(
		func() { p.Settle(fn()) },
		func() { p.Reject(ErrClosed) },
	) {
		p.Reject(ErrClosed)
	}
	return p
}

// Local accessors, passed through per ExcludedOperations.

func (a *Async) Host() string          { return a.sync.Host() }
func (a *Async) Scheme() string        { return a.sync.Scheme() }
func (a *Async) Token() string         { return a.sync.Token() }
func (a *Async) SetToken(token string) { a.sync.SetToken(token) }
func (a *Async) User() *models.User    { return a.sync.User() }
func (a *Async) Logout()               { a.sync.Logout() }

func (a *Async) Login(ctx context.Context, username, password string) *promise.Promise[string] {
	return submit(a, func() (string, error) {
		return a.sync.Login(ctx, username, password)
	})
}

func (a *Async) DBInfo(ctx context.Context) *promise.Promise[*models.DBInfo] {
	return submit(a, func() (*models.DBInfo, error) {
		return a.sync.DBInfo(ctx)
	})
}

func (a *Async) MinClientVersion(ctx context.Context) *promise.Promise[string] {
	return submit(a, func() (string, error) {
		return a.sync.MinClientVersion(ctx)
	})
}

func (a *Async) ReportError(ctx context.Context, message, traceback string) *promise.Promise[struct{}] {
	return submit(a, func() (struct{}, error) {
		return struct{}{}, a.sync.ReportError(ctx, message, traceback)
	})
}

func (a *Async) DownloadDB(ctx context.Context, target io.Writer) *promise.Promise[struct{}] {
	return submit(a, func() (struct{}, error) {
		return struct{}{}, a.sync.DownloadDB(ctx, target)
	})
}

func (a *Async) Release(ctx context.Context, id int64) *promise.Promise[*models.CubeRelease] {
	return submit(a, func() (*models.CubeRelease, error) {
		return a.sync.Release(ctx, id)
	})
}

func (a *Async) VersionedCube(ctx context.Context, id int64) *promise.Promise[*models.VersionedCube] {
	return submit(a, func() (*models.VersionedCube, error) {
		return a.sync.VersionedCube(ctx, id)
	})
}

func (a *Async) VersionedCubes(ctx context.Context, offset, limit int, fresh bool) *promise.Promise[pagination.Response[*models.VersionedCube]] {
	return submit(a, func() (pagination.Response[*models.VersionedCube], error) {
		return a.sync.VersionedCubes(ctx, offset, limit, fresh)
	})
}

func (a *Async) Patch(ctx context.Context, id int64) *promise.Promise[*models.Patch] {
	return submit(a, func() (*models.Patch, error) {
		return a.sync.Patch(ctx, id)
	})
}

func (a *Async) Patches(ctx context.Context, versionedCubeID int64, offset, limit int) *promise.Promise[pagination.Response[*models.Patch]] {
	return submit(a, func() (pagination.Response[*models.Patch], error) {
		return a.sync.Patches(ctx, versionedCubeID, offset, limit)
	})
}

func (a *Async) PreviewPatch(ctx context.Context, patchID int64) *promise.Promise[*models.MetaCube] {
	return submit(a, func() (*models.MetaCube, error) {
		return a.sync.PreviewPatch(ctx, patchID)
	})
}

func (a *Async) VerbosePatch(ctx context.Context, patchID int64) *promise.Promise[*models.VerboseCubePatch] {
	return submit(a, func() (*models.VerboseCubePatch, error) {
		return a.sync.VerbosePatch(ctx, patchID)
	})
}

func (a *Async) DistributionPossibilities(ctx context.Context, patchID int64, offset, limit int) *promise.Promise[pagination.Response[*models.DistributionPossibility]] {
	return submit(a, func() (pagination.Response[*models.DistributionPossibility], error) {
		return a.sync.DistributionPossibilities(ctx, patchID, offset, limit)
	})
}

func (a *Async) SearchPrintings(ctx context.Context, query string, offset, limit int, opts client.SearchOptions) *promise.Promise[pagination.Response[*models.Printing]] {
	return submit(a, func() (pagination.Response[*models.Printing], error) {
		return a.sync.SearchPrintings(ctx, query, offset, limit, opts)
	})
}

func (a *Async) SearchCardboards(ctx context.Context, query string, offset, limit int, opts client.SearchOptions) *promise.Promise[pagination.Response[*models.Cardboard]] {
	return submit(a, func() (pagination.Response[*models.Cardboard], error) {
		return a.sync.SearchCardboards(ctx, query, offset, limit, opts)
	})
}

func (a *Async) LimitedSession(ctx context.Context, id int64) *promise.Promise[*models.LimitedSession] {
	return submit(a, func() (*models.LimitedSession, error) {
		return a.sync.LimitedSession(ctx, id)
	})
}

func (a *Async) LimitedSessions(ctx context.Context, offset, limit int, opts client.SessionsOptions) *promise.Promise[pagination.Response[*models.LimitedSession]] {
	return submit(a, func() (pagination.Response[*models.LimitedSession], error) {
		return a.sync.LimitedSessions(ctx, offset, limit, opts)
	})
}

func (a *Async) LimitedPool(ctx context.Context, id int64) *promise.Promise[*models.LimitedPool] {
	return submit(a, func() (*models.LimitedPool, error) {
		return a.sync.LimitedPool(ctx, id)
	})
}

func (a *Async) LimitedDeck(ctx context.Context, id int64) *promise.Promise[*models.LimitedDeck] {
	return submit(a, func() (*models.LimitedDeck, error) {
		return a.sync.LimitedDeck(ctx, id)
	})
}

func (a *Async) UploadLimitedDeck(ctx context.Context, poolID int64, name string, deck models.Deck) *promise.Promise[*models.LimitedDeck] {
	return submit(a, func() (*models.LimitedDeck, error) {
		return a.sync.UploadLimitedDeck(ctx, poolID, name, deck)
	})
}

func (a *Async) Tournament(ctx context.Context, id int64) *promise.Promise[*models.Tournament] {
	return submit(a, func() (*models.Tournament, error) {
		return a.sync.Tournament(ctx, id)
	})
}

func (a *Async) ScheduledMatch(ctx context.Context, id int64) *promise.Promise[*models.ScheduledMatch] {
	return submit(a, func() (*models.ScheduledMatch, error) {
		return a.sync.ScheduledMatch(ctx, id)
	})
}

func (a *Async) ScheduledMatches(ctx context.Context, userID int64, offset, limit int) *promise.Promise[pagination.Response[*models.ScheduledMatch]] {
	return submit(a, func() (pagination.Response[*models.ScheduledMatch], error) {
		return a.sync.ScheduledMatches(ctx, userID, offset, limit)
	})
}

func (a *Async) RatingHistoryForCubeable(ctx context.Context, releaseID int64, cubeable string) *promise.Promise[[]*models.RatingPoint] {
	return submit(a, func() ([]*models.RatingPoint, error) {
		return a.sync.RatingHistoryForCubeable(ctx, releaseID, cubeable)
	})
}

func (a *Async) RatingHistoryForNode(ctx context.Context, releaseID int64, node string) *promise.Promise[[]*models.NodeRatingPoint] {
	return submit(a, func() ([]*models.NodeRatingPoint, error) {
		return a.sync.RatingHistoryForNode(ctx, releaseID, node)
	})
}

func (a *Async) Ratings(ctx context.Context, id int64) *promise.Promise[*models.RatingMap] {
	return submit(a, func() (*models.RatingMap, error) {
		return a.sync.Ratings(ctx, id)
	})
}

func (a *Async) RatingsForVersionedCube(ctx context.Context, versionedCubeID int64) *promise.Promise[*models.RatingMap] {
	return submit(a, func() (*models.RatingMap, error) {
		return a.sync.RatingsForVersionedCube(ctx, versionedCubeID)
	})
}

func (a *Async) RatingsForRelease(ctx context.Context, releaseID int64) *promise.Promise[*models.RatingMap] {
	return submit(a, func() (*models.RatingMap, error) {
		return a.sync.RatingsForRelease(ctx, releaseID)
	})
}

// releaseCache is the managed release store: a permanent id-to-release map
// plus a flight register coalescing concurrent fetches. Cache lookup and
// flight acquisition happen under one critical section, so a flight
// completing between the two steps cannot cause a duplicate fetch.
type releaseCache struct {
	mu       sync.Mutex
	entries  map[int64]*models.CubeRelease
	inflight flight.Register[int64, *models.CubeRelease]
}
