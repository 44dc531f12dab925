// Package transport maps viewer input (slider, scroll, frame step and the
// play/pause button) onto the seek coordinator.
package transport

import (
	"time"

	"github.com/osa030/seekbox/internal/app/pipeline"
	"github.com/osa030/seekbox/internal/app/seek"
	zlog "github.com/rs/zerolog/log"
)

// DefaultScrollStep is the time moved by one scroll tick.
const DefaultScrollStep = 500 * time.Millisecond

// Direction of a scroll or frame step.
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

// Config holds adapter configuration.
type Config struct {
	ScrollStep time.Duration // Time moved per scroll tick outside frame stepping
}

// Controls is the transport controls adapter. Like the coordinator, it
// must only be used from the event loop.
type Controls struct {
	coord  *seek.Coordinator
	config Config

	dragging    bool
	wasPlaying  bool // play state before the drag paused it
	sliderValue time.Duration
}

// New creates controls bound to coord.
func New(coord *seek.Coordinator, config Config) *Controls {
	if config.ScrollStep <= 0 {
		config.ScrollStep = DefaultScrollStep
	}
	return &Controls{coord: coord, config: config}
}

// Dragging reports whether the slider is held.
func (c *Controls) Dragging() bool {
	return c.dragging
}

// SliderPress starts a slider drag and pauses playback.
func (c *Controls) SliderPress() error {
	if c.dragging {
		return nil
	}
	snap := c.coord.Snapshot()
	c.dragging = true
	c.wasPlaying = snap.PlayState == pipeline.StatePlaying
	c.sliderValue = snap.CurrentTime
	zlog.Debug().Bool("was_playing", c.wasPlaying).Msg("transport: slider pressed")
	return c.coord.Pause()
}

// SliderMove seeks to value while the slider is held.
func (c *Controls) SliderMove(value time.Duration) error {
	if !c.dragging {
		return nil
	}
	c.sliderValue = value
	return c.coord.RequestSeek(pipeline.AtTime(value))
}

// SliderRelease ends the drag and restores the play state from before
// the press.
func (c *Controls) SliderRelease() error {
	if !c.dragging {
		return nil
	}
	c.dragging = false
	zlog.Debug().Dur("value", c.sliderValue).Msg("transport: slider released")

	if c.wasPlaying {
		c.wasPlaying = false
		return c.coord.Play()
	}
	return c.coord.Pause()
}

// Scroll moves one step in dir: ScrollStep in time mode, one frame while
// frame stepping.
func (c *Controls) Scroll(dir Direction) error {
	snap := c.coord.Snapshot()

	if !snap.FrameStepping() {
		target := snap.CurrentTime + time.Duration(dir)*c.config.ScrollStep
		target = max(target, 0)
		if snap.DurationKnown {
			target = min(target, snap.Duration)
		}
		return c.coord.RequestSeek(pipeline.AtTime(target))
	}

	frame := max(snap.CurrentFrame+int64(dir), 0)
	return c.coord.RequestSeek(pipeline.AtFrame(frame))
}

// StepFrame moves delta frames from the current position and enters
// frame stepping.
func (c *Controls) StepFrame(delta int64) error {
	snap := c.coord.Snapshot()

	base := snap.CurrentFrame
	if base == seek.NoFrame {
		base = c.coord.FrameRate().FrameAt(snap.CurrentTime)
	}
	return c.coord.RequestSeek(pipeline.AtFrame(max(base+delta, 0)))
}

// PlayPause toggles playback.
func (c *Controls) PlayPause() error {
	return c.coord.TogglePlayPause()
}

// View returns what the viewer widgets should display.
func (c *Controls) View() View {
	return c.ViewOf(c.coord.Snapshot())
}

// ViewOf builds the view for snap using the current drag state.
func (c *Controls) ViewOf(snap seek.Snapshot) View {
	return BuildView(snap, c.dragging, c.sliderValue)
}
