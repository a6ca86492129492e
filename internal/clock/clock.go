// Package clock schedules one-shot and repeating callbacks.
//
// Game code never sleeps or spawns goroutines of its own; every delay is a
// callback registered with a Scheduler. Virtual drives a deterministic
// timeline that tests advance by hand, Real drives wall-clock timers and
// serialises callbacks behind a caller supplied lock.
package clock

import (
	"sort"
	"time"
)

// Timer is a cancellable handle to a scheduled callback.
type Timer interface {
	// Stop prevents any further run of the callback. It reports whether the
	// timer was still pending.
	Stop() bool
}

// Scheduler registers callbacks against a timeline.
type Scheduler interface {
	// Now returns the time elapsed since the scheduler was created.
	Now() time.Duration
	// AfterFunc runs f once after d.
	AfterFunc(d time.Duration, f func()) Timer
	// Every runs f every interval until stopped. The first run happens one
	// interval from now.
	Every(interval time.Duration, f func()) Timer
}

// Stop stops t if it is non-nil and returns nil so callers can clear their
// handle in one statement: h = clock.Stop(h).
func Stop(t Timer) Timer {
	if t != nil {
		t.Stop()
	}
	return nil
}

/* ------------------------------ Virtual ------------------------------ */

// Virtual is a manually advanced timeline. It is not safe for concurrent use;
// callbacks run on the goroutine calling Advance.
type Virtual struct {
	now    time.Duration
	seq    uint64
	timers []*virtualTimer
}

type virtualTimer struct {
	due     time.Duration
	every   time.Duration
	seq     uint64
	fn      func()
	stopped bool
}

func (t *virtualTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// NewVirtual returns a virtual timeline starting at zero.
func NewVirtual() *Virtual {
	return &Virtual{}
}

// Now implements Scheduler.
func (v *Virtual) Now() time.Duration { return v.now }

// AfterFunc implements Scheduler.
func (v *Virtual) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	return v.add(&virtualTimer{due: v.now + d, fn: f})
}

// Every implements Scheduler. It panics on a non-positive interval, matching
// time.NewTicker.
func (v *Virtual) Every(interval time.Duration, f func()) Timer {
	if interval <= 0 {
		panic("clock: non-positive interval for Every")
	}
	return v.add(&virtualTimer{due: v.now + interval, every: interval, fn: f})
}

func (v *Virtual) add(t *virtualTimer) *virtualTimer {
	v.seq++
	t.seq = v.seq
	v.timers = append(v.timers, t)
	return t
}

// Advance moves the timeline forward by d, running every callback that falls
// due in order of due time, then registration order.
func (v *Virtual) Advance(d time.Duration) {
	target := v.now + d
	for {
		t := v.next(target)
		if t == nil {
			break
		}
		v.now = t.due
		if t.every > 0 {
			t.due += t.every
			v.seq++
			t.seq = v.seq
		} else {
			t.stopped = true
		}
		t.fn()
	}
	v.now = target
}

// Pending returns the number of live timers.
func (v *Virtual) Pending() int {
	v.compact()
	return len(v.timers)
}

func (v *Virtual) next(limit time.Duration) *virtualTimer {
	v.compact()
	if len(v.timers) == 0 {
		return nil
	}
	sort.SliceStable(v.timers, func(i, j int) bool {
		a, b := v.timers[i], v.timers[j]
		if a.due != b.due {
			return a.due < b.due
		}
		return a.seq < b.seq
	})
	if v.timers[0].due > limit {
		return nil
	}
	return v.timers[0]
}

func (v *Virtual) compact() {
	live := v.timers[:0]
	for _, t := range v.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(v.timers); i++ {
		v.timers[i] = nil
	}
	v.timers = live
}
