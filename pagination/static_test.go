package pagination

import (
	"context"
	"errors"
	"testing"
)

func TestFetchStaticWindow(t *testing.T) {
	ep := &fakeEndpoint{count: 25}
	page, err := FetchStatic(context.Background(), ep.fetch, intSerializer, 10, 10)
	if err != nil {
		t.Fatalf("FetchStatic: %v", err)
	}

	if got := page.Hits(); got != 25 {
		t.Fatalf("Hits() = %d, want 25", got)
	}
	if got := page.Len(); got != 10 {
		t.Fatalf("Len() = %d, want 10", got)
	}
	if got := page.Offset(); got != 10 {
		t.Fatalf("Offset() = %d, want 10", got)
	}

	v, err := page.Get(context.Background(), 0)
	if err != nil {
		t.Fatalf("Get(0): %v", err)
	}
	if v != 10 {
		t.Fatalf("Get(0) = %d, want 10", v)
	}

	// Static pages never fetch again.
	if _, err := page.Get(context.Background(), 10); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Get past window error = %v, want ErrOutOfRange", err)
	}
	if calls := ep.calls.Load(); calls != 1 {
		t.Fatalf("static page issued %d fetches, want 1", calls)
	}
}

func TestFetchStaticTail(t *testing.T) {
	ep := &fakeEndpoint{count: 25}
	page, err := FetchStatic(context.Background(), ep.fetch, intSerializer, 20, 10)
	if err != nil {
		t.Fatalf("FetchStatic: %v", err)
	}

	if got := page.Len(); got != 5 {
		t.Fatalf("Len() = %d, want 5", got)
	}

	var seen []int
	if err := page.Each(context.Background(), func(_ int, v int) bool {
		seen = append(seen, v)
		return true
	}); err != nil {
		t.Fatalf("Each: %v", err)
	}
	if len(seen) != 5 || seen[0] != 20 || seen[4] != 24 {
		t.Fatalf("Each visited %v", seen)
	}
}

func TestStaticPageContains(t *testing.T) {
	ep := &fakeEndpoint{count: 25}
	page, err := FetchStatic(context.Background(), ep.fetch, intSerializer, 0, 10)
	if err != nil {
		t.Fatalf("FetchStatic: %v", err)
	}

	ok, err := page.Contains(context.Background(), 7)
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if !ok {
		t.Fatal("Contains(7) = false, want true")
	}

	// 17 exists in the collection but not in this window.
	ok, err = page.Contains(context.Background(), 17)
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if ok {
		t.Fatal("Contains(17) = true, want false")
	}
}

func TestFetchStaticError(t *testing.T) {
	boom := errors.New("boom")
	_, err := FetchStatic(
		context.Background(),
		func(context.Context, int, int) (Page, error) { return Page{}, boom },
		intSerializer, 0, 10,
	)
	if !errors.Is(err, boom) {
		t.Fatalf("FetchStatic error = %v, want %v", err, boom)
	}
}
