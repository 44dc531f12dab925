// Package eventloop provides a single goroutine that runs posted callbacks
// one at a time, in posting order. State owned by the loop needs no locks.
package eventloop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// ErrClosed is returned when work is submitted to a stopped loop.
var ErrClosed = errors.New("event loop closed")

// Scheduler is the part of the loop that loop-owned components use to
// defer work back onto the loop.
type Scheduler interface {
	// Post queues fn to run on the loop.
	Post(fn func()) bool
	// AfterFunc runs fn on the loop after d. The returned cancel func must
	// be called from the loop; once it returns, fn will not run.
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

// Loop executes callbacks on a single goroutine.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	done chan struct{}

	running atomic.Bool
}

// New creates a loop. Nothing runs until Run is called.
func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Verify Loop implements Scheduler at compile time.
var _ Scheduler = (*Loop)(nil)

// Post queues fn. It never blocks and returns false if the loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to finish. It must not be called
// from the loop itself.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// the loop may have drained fn right before stopping
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// AfterFunc runs fn on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) func() {
	var cancelled atomic.Bool
	t := time.AfterFunc(d, func() {
		l.Post(func() {
			if cancelled.Load() {
				return
			}
			fn()
		})
	})

	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}

// Run executes queued callbacks until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("event loop already running")
	}
	defer close(l.done)

	for {
		for _, fn := range l.take() {
			l.exec(fn)
		}

		if l.isClosed() {
			return nil
		}

		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Close stops the loop after the callbacks already queued have run.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	q := l.queue
	l.queue = nil
	return q
}

func (l *Loop) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed && len(l.queue) == 0
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("eventloop: callback panicked: %v", r)
		}
	}()
	fn()
}
