// Package promise provides a minimal single-assignment future.
//
// A Promise is settled exactly once, either with a value or with an error;
// settling twice panics. Consumers block via Get or watch completion via the
// Done channel, and may attach non-blocking callbacks with Then and Catch.
package promise

import (
	"context"
	"sync"
)

// Promise holds the eventual result of an asynchronous operation.
// Construct with New, Resolved or Rejected; the zero value is not usable.
type Promise[T any] struct {
	done chan struct{}

	mu  sync.Mutex
	val T
	err error
}

// New returns an unsettled promise.
func New[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{})}
}

// Resolved returns a promise already settled with val.
func Resolved[T any](val T) *Promise[T] {
	p := New[T]()
	p.Resolve(val)
	return p
}

// Rejected returns a promise already settled with err.
func Rejected[T any](err error) *Promise[T] {
	p := New[T]()
	p.Reject(err)
	return p
}

// Resolve settles the promise with val. It panics if the promise has already
// been settled.
func (p *Promise[T]) Resolve(val T) {
	p.settle(val, nil)
}

// Reject settles the promise with err. It panics if the promise has already
// been settled.
func (p *Promise[T]) Reject(err error) {
	var zero T
	p.settle(zero, err)
}

// Settle settles the promise with the (val, err) pair of a conventional Go
// call. It panics if the promise has already been settled.
func (p *Promise[T]) Settle(val T, err error) {
	p.settle(val, err)
}

func (p *Promise[T]) settle(val T, err error) {
	p.mu.Lock()
	select {
	case <-p.done:
		p.mu.Unlock()
		panic("promise: settled more than once")
	default:
	}
	p.val = val
	p.err = err
	close(p.done)
	p.mu.Unlock()
}

// Done returns a channel that is closed once the promise settles.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Get blocks until the promise settles or ctx is cancelled, whichever comes
// first, and returns the settled result or the context error.
func (p *Promise[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then invokes fn with the value once the promise resolves. fn runs on its
// own goroutine and is skipped when the promise rejects. It returns p for
// chaining with Catch.
func (p *Promise[T]) Then(fn func(T)) *Promise[T] {
	go func() {
		<-p.done
		if p.err == nil {
			fn(p.val)
		}
	}()
	return p
}

// Catch invokes fn with the error once the promise rejects. fn runs on its
// own goroutine and is skipped when the promise resolves. It returns p for
// chaining with Then.
func (p *Promise[T]) Catch(fn func(error)) *Promise[T] {
	go func() {
		<-p.done
		if p.err != nil {
			fn(p.err)
		}
	}()
	return p
}
