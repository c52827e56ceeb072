package flight

import (
	"context"
	"sync"
)

// Register coalesces concurrent producers for the same key so that N
// concurrent requesters result in exactly one underlying computation.
//
// Unlike a result cache, the register only tracks in-flight work: Publish
// removes the key as its final side effect, so a later Acquire for the same
// key starts a fresh flight instead of reusing a stale outcome. Failures are
// therefore never memoized either; a later caller simply retries.
//
// Concurrency notes:
//   - Acquire/removal on the key map is a single critical section; the
//     producer's work runs outside it, so one key's slow fetch never blocks
//     another key's flights.
//   - Publishing (val, err) happens-before close(done), so waiters that
//     return from Wait observe the final values.
//
// The zero value is ready to use.
type Register[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*Flight[K, V]
}

// Flight is a single in-progress computation for one key. Exactly one caller
// (the leader, for whom Acquire reported inProgress=false) must complete it
// with Publish or PublishErr; everyone else waits on Wait.
type Flight[K comparable, V any] struct {
	reg *Register[K, V]
	key K

	done chan struct{} // closed when val/err are published
	val  V
	err  error
}

// Acquire looks up or creates the flight for key.
//
// If inProgress is false the caller is the leader and must eventually call
// Publish or PublishErr on the returned flight. If inProgress is true another
// caller is already producing; block on Wait to observe its outcome.
func (r *Register[K, V]) Acquire(key K) (f *Flight[K, V], inProgress bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.m == nil {
		r.m = make(map[K]*Flight[K, V])
	}
	if f, ok := r.m[key]; ok {
		return f, true
	}

	f = &Flight[K, V]{
		reg:  r,
		key:  key,
		done: make(chan struct{}),
	}
	r.m[key] = f
	return f, false
}

// Len reports the number of keys currently in flight.
func (r *Register[K, V]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}

// Publish completes the flight with a value, deregisters the key and wakes
// all waiters. It must be called at most once per flight; a second publish is
// an invariant violation and panics.
func (f *Flight[K, V]) Publish(val V) {
	f.publish(val, nil)
}

// PublishErr completes the flight with a failure. All waiters receive the
// same error; since the key is removed, a subsequent Acquire retries instead
// of observing a cached failure.
func (f *Flight[K, V]) PublishErr(err error) {
	var zero V
	f.publish(zero, err)
}

func (f *Flight[K, V]) publish(val V, err error) {
	f.reg.mu.Lock()
	select {
	case <-f.done:
		f.reg.mu.Unlock()
		panic("flight: flight published more than once")
	default:
	}
	f.val, f.err = val, err
	delete(f.reg.m, f.key)
	close(f.done)
	f.reg.mu.Unlock()
}

// Wait blocks until the leader publishes, then returns the shared outcome.
// Cancelling ctx unblocks only this waiter; the leader keeps running.
func (f *Flight[K, V]) Wait(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}
