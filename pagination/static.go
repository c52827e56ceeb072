package pagination

import (
	"context"
	"fmt"
)

// StaticPage is a fully materialized window of a paginated collection. It is
// what the asynchronous client hands out: the fetch happens eagerly (on a
// worker), so the resulting value involves no further I/O and Get never
// blocks.
type StaticPage[T any] struct {
	items  []T
	hits   int
	offset int
	limit  int
	eq     func(a, b T) bool
}

// FetchStatic eagerly fetches one window and wraps it. Unlike NewSequence it
// only addresses the items of that window, not the whole collection.
func FetchStatic[T any](
	ctx context.Context,
	endpoint Endpoint,
	serialize Serializer[T],
	offset int,
	limit int,
	opts ...Option[T],
) (*StaticPage[T], error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	page, err := endpoint(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(page.Results))
	for _, raw := range page.Results {
		item, err := serialize(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	o := buildOptions(opts)
	return &StaticPage[T]{
		items:  items,
		hits:   page.Count,
		offset: offset,
		limit:  limit,
		eq:     o.eq,
	}, nil
}

// Hits returns the total number of matches in the remote collection.
func (p *StaticPage[T]) Hits() int { return p.hits }

// Len returns the number of items in this window.
func (p *StaticPage[T]) Len() int { return len(p.items) }

// Offset returns the window's starting position in the remote collection.
func (p *StaticPage[T]) Offset() int { return p.offset }

// Limit returns the page size the window was requested with.
func (p *StaticPage[T]) Limit() int { return p.limit }

func (p *StaticPage[T]) Get(_ context.Context, index int) (T, error) {
	if index < 0 || index >= len(p.items) {
		var zero T
		return zero, fmt.Errorf("index %d with length %d: %w", index, len(p.items), ErrOutOfRange)
	}
	return p.items[index], nil
}

func (p *StaticPage[T]) Each(_ context.Context, fn func(index int, item T) bool) error {
	for i, item := range p.items {
		if !fn(i, item) {
			return nil
		}
	}
	return nil
}

func (p *StaticPage[T]) Contains(_ context.Context, item T) (bool, error) {
	for _, candidate := range p.items {
		if p.eq(candidate, item) {
			return true, nil
		}
	}
	return false, nil
}

var _ Response[int] = (*StaticPage[int])(nil)
