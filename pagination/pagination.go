package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
)

// ErrOutOfRange reports an index access beyond a response's known length.
// It is distinct from any transport failure so callers can tell "collection
// exhausted" from "fetch failed".
var ErrOutOfRange = errors.New("pagination: index out of range")

// Page is the raw payload a paging endpoint returns for one window: the total
// number of hits and the raw records for the requested range.
type Page struct {
	Count   int               `json:"count"`
	Results []json.RawMessage `json:"results"`
}

// Endpoint fetches one window of a remote paginated collection. Repeated
// calls with overlapping ranges are expected to report consistent counts
// within the lifetime of a single sequence; the count is read once at
// construction and trusted thereafter.
type Endpoint func(ctx context.Context, offset, limit int) (Page, error)

// Serializer turns one raw record into a typed entity. It must be pure from
// the sequence's perspective.
type Serializer[T any] func(raw json.RawMessage) (T, error)

// Response is a fixed-length view over a paginated collection. Sequence
// resolves elements lazily on access; StaticPage holds one fully
// materialized window.
type Response[T any] interface {
	// Hits returns the total number of matches known to the remote
	// collection. Never triggers a fetch.
	Hits() int

	// Len returns the number of locally addressable elements.
	Len() int

	// Get returns the element at index, fetching it if necessary.
	// Out-of-bounds access returns ErrOutOfRange.
	Get(ctx context.Context, index int) (T, error)

	// Each walks elements in index order, resolving unfetched runs on
	// demand. Returning false from fn stops the walk early. Each may be
	// called repeatedly; previously resolved elements are reused.
	Each(ctx context.Context, fn func(index int, item T) bool) error

	// Contains reports whether an element equal to item is reachable via
	// full iteration. Worst case this fetches every unresolved page.
	Contains(ctx context.Context, item T) (bool, error)
}

// Option configures a Response built by NewSequence or FetchStatic.
type Option[T any] func(*options[T])

type options[T any] struct {
	eq func(a, b T) bool
}

// WithEquality overrides the equality used by Contains. The default is
// reflect.DeepEqual, which is rarely what you want for entities that compare
// by id; pass the entity's Equal method instead.
func WithEquality[T any](eq func(a, b T) bool) Option[T] {
	return func(o *options[T]) {
		o.eq = eq
	}
}

func buildOptions[T any](opts []Option[T]) options[T] {
	o := options[T]{
		eq: func(a, b T) bool { return reflect.DeepEqual(a, b) },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
