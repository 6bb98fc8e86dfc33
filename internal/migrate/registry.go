package migrate

import (
	"sync"
	"time"
)

// taskRegistry tracks fire-and-forget goroutines so a run can wait a
// bounded time for them before exiting.
type taskRegistry struct {
	wg sync.WaitGroup

	mu      sync.Mutex
	pending int
}

// Go runs fn in a tracked goroutine.
func (r *taskRegistry) Go(fn func()) {
	r.mu.Lock()
	r.pending++
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer func() {
			r.mu.Lock()
			r.pending--
			r.mu.Unlock()
			r.wg.Done()
		}()
		fn()
	}()
}

// Pending returns how many tracked goroutines are still running.
func (r *taskRegistry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Wait blocks until every tracked goroutine finishes or the timeout
// elapses. Returns false on timeout. After a timeout the waiter
// goroutine stays alive until the stragglers finish, then exits.
func (r *taskRegistry) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
