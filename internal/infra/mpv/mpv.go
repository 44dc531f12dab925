// Package mpv provides a pipeline backed by libmpv.
package mpv

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	libmpv "github.com/supersonic-app/go-mpv"

	"github.com/osa030/seekbox/internal/app/pipeline"
	"github.com/osa030/seekbox/internal/domain/media"
)

// waitTimeout bounds each WaitEvent call so Stop is not blocked for long.
const waitTimeout = 0.25

// Observed properties
const (
	propTimePos  = "time-pos"
	propDuration = "duration"
	propPause    = "pause"
)

// ErrStopped is returned by operations on a stopped pipeline.
var ErrStopped = errors.New("pipeline stopped")

// Pipeline drives one mpv instance playing a single media.
type Pipeline struct {
	mu       sync.Mutex
	instance *libmpv.Mpv
	media    media.Media
	tracker  tracker
	stopped  bool

	events *pipeline.Broadcaster
	done   chan struct{}
	wg     sync.WaitGroup
}

// New creates an mpv instance, loads m paused and starts reading its events.
func New(m media.Media, settings Settings) (*Pipeline, error) {
	instance := libmpv.Create()

	for _, opt := range settings.options() {
		if err := instance.SetOptionString(opt.name, opt.value); err != nil {
			instance.TerminateDestroy()
			return nil, errors.Wrapf(err, "failed to set mpv option %s", opt.name)
		}
	}
	if err := instance.Initialize(); err != nil {
		instance.TerminateDestroy()
		return nil, errors.Wrap(err, "failed to initialize mpv")
	}

	observed := []struct {
		name   string
		format libmpv.Format
	}{
		{propTimePos, libmpv.FORMAT_DOUBLE},
		{propDuration, libmpv.FORMAT_DOUBLE},
		{propPause, libmpv.FORMAT_FLAG},
	}
	for _, o := range observed {
		if err := instance.ObserveProperty(0, o.name, o.format); err != nil {
			instance.TerminateDestroy()
			return nil, errors.Wrapf(err, "failed to observe %s", o.name)
		}
	}

	if err := instance.Command([]string{"loadfile", m.URI}); err != nil {
		instance.TerminateDestroy()
		return nil, errors.Wrapf(err, "failed to load %s", m.URI)
	}

	p := &Pipeline{
		instance: instance,
		media:    m,
		tracker:  newTracker(),
		events:   pipeline.NewBroadcaster(),
		done:     make(chan struct{}),
	}
	p.wg.Add(1)
	go p.eventLoop()

	zlog.Info().Str("media", m.Name).Msg("mpv: loaded")
	return p, nil
}

// Verify Pipeline implements pipeline.Pipeline at compile time.
var _ pipeline.Pipeline = (*Pipeline)(nil)

func (p *Pipeline) Play() error {
	return p.setPause(false)
}

func (p *Pipeline) Pause() error {
	return p.setPause(true)
}

func (p *Pipeline) setPause(paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	if err := p.instance.SetProperty(propPause, libmpv.FORMAT_FLAG, paused); err != nil {
		return errors.Wrap(err, "failed to set pause")
	}
	return nil
}

// Seek issues an exact absolute seek. Frame targets are converted with the
// media frame rate.
func (p *Pipeline) Seek(target pipeline.Target) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}

	pos := target.Time
	if target.Unit == pipeline.UnitFrame {
		if !p.media.FrameRate.IsValid() {
			return errors.New("frame seek without frame rate")
		}
		pos = p.media.FrameRate.TimeOf(target.Frame)
	}
	if err := p.instance.Command([]string{"seek", seekArg(pos), "absolute+exact"}); err != nil {
		return errors.Wrap(err, "mpv seek failed")
	}
	return nil
}

func (p *Pipeline) Duration() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracker.dur, p.tracker.durKnown
}

func (p *Pipeline) Subscribe(h pipeline.Handlers) pipeline.Subscription {
	return p.events.Subscribe(h)
}

// Stop ends the event loop and destroys the mpv instance. Safe to call
// more than once.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.done)
	p.mu.Unlock()

	// WaitEvent must not race with TerminateDestroy.
	p.wg.Wait()
	p.instance.TerminateDestroy()
	zlog.Debug().Str("media", p.media.Name).Msg("mpv: stopped")
	return nil
}

func (p *Pipeline) eventLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		default:
		}

		evt := p.instance.WaitEvent(waitTimeout)
		if evt == nil {
			continue
		}

		switch evt.Event_Id {
		case libmpv.EVENT_SHUTDOWN:
			zlog.Warn().Msg("mpv: shutdown")
			return
		case libmpv.EVENT_PROPERTY_CHANGE, libmpv.EVENT_START_FILE:
			p.refresh()
		case libmpv.EVENT_END_FILE:
			zlog.Debug().Str("media", p.media.Name).Msg("mpv: end of file")
			p.refresh()
		case libmpv.EVENT_IDLE, libmpv.EVENT_NONE:
			continue
		default:
			zlog.Debug().Msgf("mpv: unhandled event %v", evt.Event_Id)
		}
	}
}

// refresh reads the observed properties and emits what changed.
func (p *Pipeline) refresh() {
	var o observation
	var err error
	if o.timePos, err = p.instance.GetProperty(propTimePos, libmpv.FORMAT_DOUBLE); err != nil {
		o.timePos = nil
	}
	if o.duration, err = p.instance.GetProperty(propDuration, libmpv.FORMAT_DOUBLE); err != nil {
		o.duration = nil
	}
	if o.pause, err = p.instance.GetProperty(propPause, libmpv.FORMAT_FLAG); err != nil {
		zlog.Debug().Err(err).Msg("mpv: failed to read pause")
		o.pause = nil
	}

	p.mu.Lock()
	c := p.tracker.apply(o)
	p.mu.Unlock()

	if c.durationChanged {
		p.events.EmitDuration(c.duration)
	}
	if c.positionChanged {
		p.events.EmitPosition(c.position)
	}
	if c.stateChanged {
		p.events.EmitState(c.state)
	}
}
