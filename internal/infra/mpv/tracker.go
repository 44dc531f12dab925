package mpv

import (
	"math"
	"strconv"
	"time"

	"github.com/osa030/seekbox/internal/app/pipeline"
)

// observation is one read of the observed mpv properties. Nil fields were
// unavailable.
type observation struct {
	timePos  any // float64 seconds
	duration any // float64 seconds
	pause    any // bool
}

// changes lists what differs from the previous observation.
type changes struct {
	position        time.Duration
	positionChanged bool
	duration        time.Duration
	durationChanged bool
	state           pipeline.State
	stateChanged    bool
}

// tracker turns property snapshots into pipeline events.
type tracker struct {
	pos      time.Duration
	posKnown bool
	dur      time.Duration
	durKnown bool
	state    pipeline.State
}

func newTracker() tracker {
	return tracker{state: pipeline.StatePaused}
}

func (t *tracker) apply(o observation) changes {
	var c changes

	if secs, ok := o.duration.(float64); ok && secs > 0 {
		d := seconds(secs)
		if !t.durKnown || d != t.dur {
			t.dur, t.durKnown = d, true
			c.duration, c.durationChanged = d, true
		}
	}
	if secs, ok := o.timePos.(float64); ok {
		p := max(seconds(secs), 0)
		if !t.posKnown || p != t.pos {
			t.pos, t.posKnown = p, true
			c.position, c.positionChanged = p, true
		}
	}
	if paused, ok := o.pause.(bool); ok {
		s := pipeline.StatePlaying
		if paused {
			s = pipeline.StatePaused
		}
		if s != t.state {
			t.state = s
			c.state, c.stateChanged = s, true
		}
	}
	return c
}

// seconds converts mpv's float seconds, rounded to the millisecond.
func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s*1000)) * time.Millisecond
}

// seekArg renders d for mpv's seek command.
func seekArg(d time.Duration) string {
	return strconv.FormatFloat(max(d, 0).Seconds(), 'f', 3, 64)
}
