package pool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitRunsAll(t *testing.T) {
	p := New(4)
	defer p.Close()

	var ran atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		if !p.Submit(func() {
			defer wg.Done()
			ran.Add(1)
		}) {
			t.Fatal("Submit returned false on open pool")
		}
	}
	wg.Wait()

	if got := ran.Load(); got != 100 {
		t.Fatalf("ran %d tasks, want 100", got)
	}
}

func TestSubmitNeverBlocks(t *testing.T) {
	p := New(1)
	defer p.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	p.Submit(func() {
		close(started)
		<-block
	})
	<-started

	// The single worker is occupied; further submissions must still be
	// accepted immediately.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			p.Submit(func() {})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked on a busy pool")
	}
	close(block)
}

func TestWorkerCount(t *testing.T) {
	p := New(3)
	defer p.Close()

	var running atomic.Int64
	var peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		})
	}
	wg.Wait()

	if got := peak.Load(); got > 3 {
		t.Fatalf("observed %d concurrent tasks, want at most 3", got)
	}
}

func TestCloseRejectsAndDrops(t *testing.T) {
	p := New(1)

	block := make(chan struct{})
	started := make(chan struct{})
	p.Submit(func() {
		close(started)
		<-block
	})
	<-started

	var ran atomic.Int64
	p.Submit(func() { ran.Add(1) })

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(block)
	}()
	p.Close()

	if p.Submit(func() {}) {
		t.Fatal("Submit returned true on closed pool")
	}
	if got := ran.Load(); got != 0 {
		t.Fatalf("queued task ran after Close, ran = %d", got)
	}
	if got := p.Pending(); got != 0 {
		t.Fatalf("Pending() = %d after Close, want 0", got)
	}

	// Close is idempotent.
	p.Close()
}

func TestCloseAbortsQueued(t *testing.T) {
	p := New(1)

	block := make(chan struct{})
	started := make(chan struct{})
	p.SubmitAbortable(func() {
		close(started)
		<-block
	}, func() {
		t.Error("abort hook called for a task that already started")
	})
	<-started

	// The single worker is occupied, so these stay queued until Close.
	var ran, aborted atomic.Int64
	for i := 0; i < 3; i++ {
		p.SubmitAbortable(func() { ran.Add(1) }, func() { aborted.Add(1) })
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(block)
	}()
	p.Close()

	if got := ran.Load(); got != 0 {
		t.Fatalf("queued tasks ran after Close, ran = %d", got)
	}
	if got := aborted.Load(); got != 3 {
		t.Fatalf("aborted %d queued tasks, want 3", got)
	}

	// Tasks without an abort hook are still just dropped.
	if p.SubmitAbortable(func() {}, nil) {
		t.Fatal("SubmitAbortable returned true on closed pool")
	}
}
