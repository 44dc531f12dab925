// Package seek coordinates user-initiated seeks with a playback pipeline
// that cannot process overlapping seek requests.
package seek

import (
	"time"

	"github.com/osa030/seekbox/internal/app/pipeline"
)

// NoFrame is the CurrentFrame value outside frame-stepping mode.
const NoFrame int64 = -1

// Snapshot is a read-only copy of the playback state.
type Snapshot struct {
	Attached       bool
	CurrentTime    time.Duration
	Duration       time.Duration
	DurationKnown  bool
	CurrentFrame   int64 // NoFrame unless frame-stepping
	PlayState      pipeline.State
	SeekInFlight   bool
	PendingSeek    time.Duration
	HasPendingSeek bool
}

// FrameStepping reports whether the last seek was a frame step.
func (s Snapshot) FrameStepping() bool {
	return s.CurrentFrame != NoFrame
}

// playbackState is owned by the Coordinator and only touched on its loop.
type playbackState struct {
	currentTime   time.Duration
	duration      time.Duration
	durationKnown bool
	currentFrame  int64
	playState     pipeline.State
	seekInFlight  bool
	pending       time.Duration
	hasPending    bool
}

func defaultState() playbackState {
	return playbackState{
		currentFrame: NoFrame,
		playState:    pipeline.StatePaused,
	}
}

// clampTime bounds t to [0, duration] once the duration is known.
func (s *playbackState) clampTime(t time.Duration) time.Duration {
	t = max(t, 0)
	if s.durationKnown {
		t = min(t, s.duration)
	}
	return t
}
