package asyncclient

import (
	"context"

	"github.com/guldfisk/cubeclient-go/models"
	"github.com/guldfisk/cubeclient-go/promise"
)

// ReleaseManagedNoBlock returns the managed release for id if it has already
// been fetched. It only takes the cache mutex and never blocks on I/O.
func (a *Async) ReleaseManagedNoBlock(id int64) (*models.CubeRelease, bool) {
	a.releases.mu.Lock()
	defer a.releases.mu.Unlock()
	release, ok := a.releases.entries[id]
	return release, ok
}

// ReleaseManaged fetches a release through the managed cache. Cached ids
// resolve without I/O; for an uncached id, concurrent callers share one
// fetch and resolve to the identical instance. Entries are kept for the
// client's lifetime.
func (a *Async) ReleaseManaged(ctx context.Context, id int64) *promise.Promise[*models.CubeRelease] {
	return submit(a, func() (*models.CubeRelease, error) {
		return a.releaseManaged(ctx, id)
	})
}

func (a *Async) releaseManaged(ctx context.Context, id int64) (*models.CubeRelease, error) {
	// Cache check and flight acquisition share the critical section: a
	// flight that completed in between would otherwise let two callers both
	// find the cache empty and both become producers.
	a.releases.mu.Lock()
	if release, ok := a.releases.entries[id]; ok {
		a.releases.mu.Unlock()
		a.metrics.CacheHit()
		return release, nil
	}
	f, inProgress := a.releases.inflight.Acquire(id)
	a.releases.mu.Unlock()
	a.metrics.CacheMiss()

	if inProgress {
		a.metrics.Dedup()
		return f.Wait(ctx)
	}

	release, err := a.sync.Release(ctx, id)
	if err != nil {
		f.PublishErr(err)
		return nil, err
	}

	a.releases.mu.Lock()
	a.releases.entries[id] = release
	a.releases.mu.Unlock()
	f.Publish(release)
	return release, nil
}
