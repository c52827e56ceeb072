package pagination

import (
	"context"
	"fmt"
	"sync"
)

// DefaultLimit is the page size used when a sequence is constructed with a
// non-positive limit.
const DefaultLimit = 50

// Sequence presents an unbounded remote collection as a fixed-length,
// sparsely resolved sequence. The total count is fetched once at
// construction and never re-read, even if the remote collection mutates
// afterwards; the sequence is a snapshot-length view.
//
// Slots are filled page by page as indices are accessed. A slot, once
// resolved, is never overwritten: concurrent or overlapping page fetches
// merge idempotently, with the first writer winning. The internal lock only
// guards slot bookkeeping and is never held across an endpoint call.
type Sequence[T any] struct {
	endpoint  Endpoint
	serialize Serializer[T]
	limit     int
	eq        func(a, b T) bool

	mu     sync.Mutex
	count  int
	items  []T
	filled []bool
}

// NewSequence builds a lazy sequence over endpoint. It issues one page fetch
// immediately to learn the total count and to pre-fill the slots covered by
// that first page. A non-positive limit falls back to DefaultLimit.
func NewSequence[T any](
	ctx context.Context,
	endpoint Endpoint,
	serialize Serializer[T],
	offset int,
	limit int,
	opts ...Option[T],
) (*Sequence[T], error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	o := buildOptions(opts)
	s := &Sequence[T]{
		endpoint:  endpoint,
		serialize: serialize,
		limit:     limit,
		eq:        o.eq,
	}

	page, err := endpoint(ctx, offset, limit)
	if err != nil {
		return nil, err
	}

	s.count = page.Count
	s.items = make([]T, s.count)
	s.filled = make([]bool, s.count)

	items, err := s.decode(page)
	if err != nil {
		return nil, err
	}
	s.merge(offset, items)

	return s, nil
}

// Hits returns the total count learned at construction.
func (s *Sequence[T]) Hits() int { return s.count }

// Len returns the total count; every index below it is addressable.
func (s *Sequence[T]) Len() int { return s.count }

// Get returns the element at index, fetching the page containing it if the
// slot is still unresolved. Repeated calls for a resolved index never touch
// the endpoint again and always return the same entity.
func (s *Sequence[T]) Get(ctx context.Context, index int) (T, error) {
	var zero T
	if index < 0 || index >= s.count {
		return zero, fmt.Errorf("index %d with length %d: %w", index, s.count, ErrOutOfRange)
	}

	s.mu.Lock()
	if s.filled[index] {
		item := s.items[index]
		s.mu.Unlock()
		return item, nil
	}
	s.mu.Unlock()

	if err := s.fetchAround(ctx, index); err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.filled[index] {
		// The endpoint returned fewer rows than the count promised.
		return zero, fmt.Errorf("pagination: endpoint returned no record for index %d", index)
	}
	return s.items[index], nil
}

// Each walks indices 0..Len()-1 in order, resolving unfetched runs as it
// goes. The walk is restartable: slots resolved by a previous walk or by Get
// are reused.
func (s *Sequence[T]) Each(ctx context.Context, fn func(index int, item T) bool) error {
	for i := 0; i < s.count; i++ {
		item, err := s.Get(ctx, i)
		if err != nil {
			return err
		}
		if !fn(i, item) {
			return nil
		}
	}
	return nil
}

// Contains reports whether an element equal to item exists anywhere in the
// sequence, fetching unresolved pages as needed.
func (s *Sequence[T]) Contains(ctx context.Context, item T) (bool, error) {
	found := false
	err := s.Each(ctx, func(_ int, candidate T) bool {
		if s.eq(candidate, item) {
			found = true
			return false
		}
		return true
	})
	return found, err
}

// Resolved reports whether the slot at index has been materialized. It never
// triggers a fetch and returns false for out-of-range indices.
func (s *Sequence[T]) Resolved(index int) bool {
	if index < 0 || index >= s.count {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filled[index]
}

// fetchAround fetches the page-aligned window containing index and merges it.
func (s *Sequence[T]) fetchAround(ctx context.Context, index int) error {
	start := (index / s.limit) * s.limit

	page, err := s.endpoint(ctx, start, s.limit)
	if err != nil {
		return err
	}
	items, err := s.decode(page)
	if err != nil {
		return err
	}
	s.merge(start, items)
	return nil
}

func (s *Sequence[T]) decode(page Page) ([]T, error) {
	items := make([]T, 0, len(page.Results))
	for _, raw := range page.Results {
		item, err := s.serialize(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// merge fills slots offset..offset+len(items)-1. Slots already filled by an
// earlier or concurrent fetch are left untouched, and nothing is ever written
// past count; a short page near the end simply fills fewer slots.
func (s *Sequence[T]) merge(offset int, items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range items {
		target := offset + i
		if target >= s.count {
			break
		}
		if s.filled[target] {
			continue
		}
		s.items[target] = item
		s.filled[target] = true
	}
}

var _ Response[int] = (*Sequence[int])(nil)
