package seek

import (
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/osa030/seekbox/internal/app/eventloop"
	"github.com/osa030/seekbox/internal/app/pipeline"
	"github.com/osa030/seekbox/internal/domain/media"
	zlog "github.com/rs/zerolog/log"
)

// Errors
var (
	ErrAlreadyAttached = errors.New("pipeline already attached")
	ErrNoPipeline      = errors.New("no pipeline attached")
	ErrSeekRejected    = errors.New("seek rejected by pipeline")
)

// DefaultSettleDelay is the time a seek is considered in flight.
const DefaultSettleDelay = 80 * time.Millisecond

// Config holds coordinator configuration.
type Config struct {
	SettleDelay time.Duration   // In-flight window after each issued seek
	FrameRate   media.FrameRate // Used to convert frame targets to time
}

// Coordinator serializes seeks against a single attached pipeline.
//
// All methods must run on the scheduler's goroutine. Pipeline events are
// re-posted onto it.
type Coordinator struct {
	config Config
	sched  eventloop.Scheduler

	pipeline   pipeline.Pipeline
	sub        pipeline.Subscription
	generation uint64 // bumped on attach/detach so stale events are ignored

	state playbackState

	settleCancel func() // Cancel function for the settle timer

	watchers []watcher
	nextID   uint64
}

type watcher struct {
	id uint64
	fn func(Update)
}

// New creates a coordinator that schedules its work on sched.
func New(sched eventloop.Scheduler, config Config) *Coordinator {
	if config.SettleDelay <= 0 {
		config.SettleDelay = DefaultSettleDelay
	}
	return &Coordinator{
		config: config,
		sched:  sched,
		state:  defaultState(),
	}
}

// Attach makes p the current pipeline.
func (c *Coordinator) Attach(p pipeline.Pipeline) error {
	if c.pipeline != nil {
		return ErrAlreadyAttached
	}

	c.generation++
	gen := c.generation
	c.state = defaultState()
	c.pipeline = p
	c.sub = p.Subscribe(pipeline.Handlers{
		Position: func(pos time.Duration) {
			c.post(gen, func() { c.onPosition(pos) })
		},
		StateChanged: func(s pipeline.State) {
			c.post(gen, func() { c.onStateChanged(s) })
		},
		DurationChanged: func(d time.Duration) {
			c.post(gen, func() { c.onDurationChanged(d) })
		},
	})

	zlog.Debug().Msg("seek: pipeline attached")
	c.notify(UpdateAttached, nil)

	if d, ok := p.Duration(); ok {
		c.onDurationChanged(d)
	}
	return nil
}

// Detach releases the current pipeline and stops it. It is a no-op when
// nothing is attached.
func (c *Coordinator) Detach() {
	if c.pipeline == nil {
		return
	}

	c.cancelSettle()
	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
	if err := c.pipeline.Stop(); err != nil {
		zlog.Warn().Err(err).Msg("seek: failed to stop pipeline")
	}

	c.pipeline = nil
	c.generation++
	c.state = defaultState()

	zlog.Debug().Msg("seek: pipeline detached")
	c.notify(UpdateDetached, nil)
}

// Pipeline returns the attached pipeline or nil.
func (c *Coordinator) Pipeline() pipeline.Pipeline {
	return c.pipeline
}

// FrameRate returns the configured frame rate.
func (c *Coordinator) FrameRate() media.FrameRate {
	return c.config.FrameRate
}

// RequestSeek moves playback to target, or records it if a seek is
// already in flight. Frame targets requested while in flight are dropped.
func (c *Coordinator) RequestSeek(target pipeline.Target) error {
	if c.pipeline == nil {
		return ErrNoPipeline
	}

	if c.state.seekInFlight {
		if target.Unit != pipeline.UnitTime {
			zlog.Debug().Int64("frame", target.Frame).Msg("seek: frame request dropped while in flight")
			return nil
		}
		c.state.pending = c.state.clampTime(target.Time)
		c.state.hasPending = true
		zlog.Debug().Dur("target", c.state.pending).Msg("seek: coalesced")
		c.notify(UpdateSeekCoalesced, nil)
		return nil
	}

	return c.issue(target)
}

// TogglePlayPause plays a paused pipeline and pauses a playing one.
// The play state itself only changes on the pipeline's state-changed event.
func (c *Coordinator) TogglePlayPause() error {
	if c.state.playState == pipeline.StatePaused {
		return c.Play()
	}
	return c.Pause()
}

// Play starts playback.
func (c *Coordinator) Play() error {
	if c.pipeline == nil {
		return ErrNoPipeline
	}
	if err := c.pipeline.Play(); err != nil {
		return errors.Wrap(err, "failed to play")
	}
	return nil
}

// Pause pauses playback.
func (c *Coordinator) Pause() error {
	if c.pipeline == nil {
		return ErrNoPipeline
	}
	if err := c.pipeline.Pause(); err != nil {
		return errors.Wrap(err, "failed to pause")
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() Snapshot {
	s := c.state
	return Snapshot{
		Attached:       c.pipeline != nil,
		CurrentTime:    s.currentTime,
		Duration:       s.duration,
		DurationKnown:  s.durationKnown,
		CurrentFrame:   s.currentFrame,
		PlayState:      s.playState,
		SeekInFlight:   s.seekInFlight,
		PendingSeek:    s.pending,
		HasPendingSeek: s.hasPending,
	}
}

// Watch registers fn to receive every update. fn runs on the loop and
// must not block. The returned func removes the watcher.
func (c *Coordinator) Watch(fn func(Update)) (cancel func()) {
	c.nextID++
	id := c.nextID
	c.watchers = append(c.watchers, watcher{id: id, fn: fn})
	return func() {
		for i, w := range c.watchers {
			if w.id == id {
				c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
				return
			}
		}
	}
}

// issue sends target to the pipeline. It must only be called when no
// seek is in flight.
func (c *Coordinator) issue(target pipeline.Target) error {
	target = c.clampTarget(target)
	c.state.seekInFlight = true

	if err := c.pipeline.Seek(target); err != nil {
		c.state.seekInFlight = false
		c.state.hasPending = false
		err = errors.Wrapf(errors.Mark(err, ErrSeekRejected), "seek to %s", describe(target))
		zlog.Warn().Err(err).Msg("seek: rejected")
		c.notify(UpdateSeekRejected, err)
		return err
	}

	c.state.hasPending = false
	c.state.pending = 0
	c.armSettle()

	switch target.Unit {
	case pipeline.UnitFrame:
		c.state.currentFrame = target.Frame
		if c.config.FrameRate.IsValid() {
			c.state.currentTime = c.state.clampTime(c.config.FrameRate.TimeOf(target.Frame))
		}
	default:
		c.state.currentTime = target.Time
		c.state.currentFrame = NoFrame
	}

	zlog.Debug().Str("target", describe(target)).Msg("seek: issued")
	c.notify(UpdateSeekIssued, nil)
	return nil
}

func (c *Coordinator) clampTarget(target pipeline.Target) pipeline.Target {
	switch target.Unit {
	case pipeline.UnitFrame:
		target.Frame = max(target.Frame, 0)
		if c.state.durationKnown && c.config.FrameRate.IsValid() {
			target.Frame = min(target.Frame, c.config.FrameRate.FrameAt(c.state.duration))
		}
	default:
		target.Time = c.state.clampTime(target.Time)
	}
	return target
}

// armSettle (re)starts the settle timer.
func (c *Coordinator) armSettle() {
	c.cancelSettle()
	gen := c.generation
	c.settleCancel = c.sched.AfterFunc(c.config.SettleDelay, func() {
		if c.generation != gen {
			return
		}
		c.onSettle()
	})
}

func (c *Coordinator) cancelSettle() {
	if c.settleCancel != nil {
		c.settleCancel()
		c.settleCancel = nil
	}
}

func (c *Coordinator) onSettle() {
	c.settleCancel = nil
	c.state.seekInFlight = false

	if c.state.hasPending && c.state.pending != c.state.currentTime {
		target := pipeline.AtTime(c.state.pending)
		// Rejection is already reported to watchers.
		_ = c.issue(target)
		return
	}

	c.state.hasPending = false
	c.state.pending = 0
	c.notify(UpdateSeekSettled, nil)
}

func (c *Coordinator) onPosition(pos time.Duration) {
	c.state.currentTime = c.state.clampTime(pos)
	c.state.currentFrame = NoFrame
	c.notify(UpdatePosition, nil)
}

func (c *Coordinator) onDurationChanged(d time.Duration) {
	c.state.duration = max(d, 0)
	c.state.durationKnown = true
	c.state.currentTime = c.state.clampTime(c.state.currentTime)
	if c.state.hasPending {
		c.state.pending = c.state.clampTime(c.state.pending)
	}
	zlog.Debug().Dur("duration", c.state.duration).Msg("seek: duration changed")
	c.notify(UpdateDuration, nil)
}

func (c *Coordinator) onStateChanged(s pipeline.State) {
	c.state.playState = s
	c.notify(UpdateState, nil)
}

// post re-dispatches a pipeline event onto the loop, dropping it if the
// pipeline it came from is no longer attached.
func (c *Coordinator) post(gen uint64, fn func()) {
	c.sched.Post(func() {
		if c.generation != gen || c.pipeline == nil {
			return
		}
		fn()
	})
}

func (c *Coordinator) notify(kind UpdateKind, err error) {
	if len(c.watchers) == 0 {
		return
	}
	u := Update{Kind: kind, Snapshot: c.Snapshot(), Err: err}
	// Copy so a watcher can cancel itself.
	ws := make([]watcher, len(c.watchers))
	copy(ws, c.watchers)
	for _, w := range ws {
		w.fn(u)
	}
}

func describe(t pipeline.Target) string {
	if t.Unit == pipeline.UnitFrame {
		return "frame " + strconv.FormatInt(t.Frame, 10)
	}
	return t.Time.String()
}
