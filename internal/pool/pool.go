// Package pool implements a fixed-size worker pool with an unbounded task
// queue. Submission always succeeds while the pool is open; tasks execute in
// submission order across the workers.
package pool

import "sync"

// Task is a unit of work executed by a pool worker.
type Task func()

// entry pairs a queued task with its abort hook.
type entry struct {
	run   Task
	abort func()
}

// Pool dispatches tasks to a fixed number of worker goroutines. The queue is
// unbounded, so Submit never blocks on slow workers.
type Pool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []entry
	closed bool

	wg sync.WaitGroup
}

// New starts a pool with the given number of workers. workers values below
// one are treated as one.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{}
	p.cond = sync.NewCond(&p.mu)
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue = p.queue[1:]
		p.mu.Unlock()

		task.run()
	}
}

// Submit enqueues task for execution. It reports false, without enqueueing,
// once the pool has been closed.
func (p *Pool) Submit(task Task) bool {
	return p.SubmitAbortable(task, nil)
}

// SubmitAbortable enqueues task with an abort hook. If the pool is closed
// before the task starts, Close calls abort instead of running the task, so
// no submission is ever silently discarded.
func (p *Pool) SubmitAbortable(task Task, abort func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.queue = append(p.queue, entry{run: task, abort: abort})
	p.cond.Signal()
	return true
}

// Close stops the pool. Tasks still queued are dropped after their abort
// hooks run; tasks already running finish. Close blocks until the workers
// have exited and is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	var dropped []entry
	if !p.closed {
		p.closed = true
		dropped = p.queue
		p.queue = nil
		p.cond.Broadcast()
	}
	p.mu.Unlock()

	for _, e := range dropped {
		if e.abort != nil {
			e.abort()
		}
	}
	p.wg.Wait()
}

// Pending reports the number of queued, not yet started tasks.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}
