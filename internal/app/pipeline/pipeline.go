// Package pipeline defines the contract the viewer consumes from a
// playback engine.
package pipeline

import (
	"time"

	"github.com/osa030/seekbox/internal/domain/media"
)

// State is the pipeline playback state reported by state-changed events.
type State int

const (
	StatePaused  State = iota // Pipeline is prerolled and paused
	StatePlaying              // Pipeline is playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// Unit selects how a seek target is interpreted.
type Unit int

const (
	UnitTime  Unit = iota // absolute time from the start of the media
	UnitFrame             // discrete frame index
)

// String returns the string representation of the unit.
func (u Unit) String() string {
	switch u {
	case UnitTime:
		return "time"
	case UnitFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// Target is a seek destination.
type Target struct {
	Unit  Unit
	Time  time.Duration // used when Unit == UnitTime
	Frame int64         // used when Unit == UnitFrame
}

// AtTime returns an absolute-time target.
func AtTime(t time.Duration) Target {
	return Target{Unit: UnitTime, Time: t}
}

// AtFrame returns a frame-index target.
func AtFrame(n int64) Target {
	return Target{Unit: UnitFrame, Frame: n}
}

// Handlers receive pipeline events. Nil fields are ignored.
type Handlers struct {
	Position        func(pos time.Duration)
	StateChanged    func(state State)
	DurationChanged func(duration time.Duration)
}

// Subscription is the handle returned by Subscribe.
type Subscription interface {
	// Unsubscribe stops event delivery. Safe to call more than once.
	Unsubscribe()
}

// Pipeline is an external playback engine.
//
// Events may be delivered from any goroutine; consumers that need a
// single thread must re-dispatch them.
type Pipeline interface {
	Play() error
	Pause() error
	Stop() error
	Seek(target Target) error
	// Duration returns the media duration and whether it is known.
	Duration() (time.Duration, bool)
	Subscribe(h Handlers) Subscription
}

// SubscriptionFunc adapts a function to Subscription.
type SubscriptionFunc func()

// Unsubscribe calls f.
func (f SubscriptionFunc) Unsubscribe() {
	if f != nil {
		f()
	}
}

// Factory builds a pipeline for a media item.
type Factory func(m media.Media) (Pipeline, error)
