package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Real schedules callbacks on wall-clock time. Every callback runs with the
// scheduler's lock held, so code that also takes the lock before calling into
// the game sees a single-threaded world.
type Real struct {
	mu    sync.Locker
	start time.Time
}

// NewReal returns a wall-clock scheduler. A nil lock gets a private mutex.
func NewReal(mu sync.Locker) *Real {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &Real{mu: mu, start: time.Now()}
}

// Now implements Scheduler.
func (r *Real) Now() time.Duration { return time.Since(r.start) }

type realTimer struct {
	t       *time.Timer
	stopped atomic.Bool
}

func (t *realTimer) Stop() bool {
	if !t.stopped.CompareAndSwap(false, true) {
		return false
	}
	t.t.Stop()
	return true
}

// AfterFunc implements Scheduler. A timer stopped while its callback waits
// for the lock does not run.
func (r *Real) AfterFunc(d time.Duration, f func()) Timer {
	rt := &realTimer{}
	rt.t = time.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if !rt.stopped.CompareAndSwap(false, true) {
			return
		}
		f()
	})
	return rt
}

type realTicker struct {
	done    chan struct{}
	stopped atomic.Bool
}

func (t *realTicker) Stop() bool {
	if !t.stopped.CompareAndSwap(false, true) {
		return false
	}
	close(t.done)
	return true
}

// Every implements Scheduler.
func (r *Real) Every(interval time.Duration, f func()) Timer {
	rt := &realTicker{done: make(chan struct{})}
	go func() {
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-rt.done:
				return
			case <-tk.C:
				r.mu.Lock()
				if !rt.stopped.Load() {
					f()
				}
				r.mu.Unlock()
			}
		}
	}()
	return rt
}
