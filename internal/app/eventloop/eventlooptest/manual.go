// Package eventlooptest provides a deterministic scheduler for tests.
package eventlooptest

import (
	"time"

	"github.com/osa030/seekbox/internal/app/eventloop"
)

// Timer is a pending AfterFunc registration.
type Timer struct {
	Delay     time.Duration
	fn        func()
	cancelled bool
	fired     bool
}

// Active reports whether the timer can still fire.
func (t *Timer) Active() bool {
	return !t.cancelled && !t.fired
}

// Manual runs posted callbacks immediately on the caller's goroutine and
// only fires timers when asked to.
type Manual struct {
	timers []*Timer
}

// NewManual creates a manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// Verify Manual implements eventloop.Scheduler at compile time.
var _ eventloop.Scheduler = (*Manual)(nil)

// Post runs fn immediately.
func (m *Manual) Post(fn func()) bool {
	fn()
	return true
}

// AfterFunc records a timer.
func (m *Manual) AfterFunc(d time.Duration, fn func()) func() {
	t := &Timer{Delay: d, fn: fn}
	m.timers = append(m.timers, t)
	return func() { t.cancelled = true }
}

// Pending returns the timers that can still fire.
func (m *Manual) Pending() []*Timer {
	var out []*Timer
	for _, t := range m.timers {
		if t.Active() {
			out = append(out, t)
		}
	}
	return out
}

// Armed returns the total number of AfterFunc calls.
func (m *Manual) Armed() int {
	return len(m.timers)
}

// FireNext fires the oldest active timer. It returns false if none is left.
func (m *Manual) FireNext() bool {
	for _, t := range m.timers {
		if t.Active() {
			t.fired = true
			t.fn()
			return true
		}
	}
	return false
}

// FireAll fires active timers until none is left, including timers armed
// by the callbacks themselves. It returns how many fired.
func (m *Manual) FireAll() int {
	n := 0
	for m.FireNext() {
		n++
	}
	return n
}
