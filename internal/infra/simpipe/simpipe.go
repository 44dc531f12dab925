// Package simpipe provides a pipeline driven by the wall clock instead of a
// media engine. It is used for demos, headless servers and tests.
package simpipe

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/seekbox/internal/app/pipeline"
	"github.com/osa030/seekbox/internal/domain/media"
)

// ErrStopped is returned by operations on a stopped pipeline.
var ErrStopped = errors.New("pipeline stopped")

// Settings configures the simulated pipeline.
type Settings struct {
	Duration      time.Duration `mapstructure:"duration" default:"60s" validate:"gt=0"`
	TickInterval  time.Duration `mapstructure:"tick_interval" default:"100ms" validate:"gt=0"`
	DiscoverDelay time.Duration `mapstructure:"discover_delay"` // Delay before the duration is reported
}

// DecodeSettings decodes backend settings from the config map.
func DecodeSettings(raw map[string]any) (Settings, error) {
	var s Settings
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &s,
	})
	if err != nil {
		return s, errors.Wrap(err, "failed to create decoder")
	}
	if err := dec.Decode(raw); err != nil {
		return s, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&s); err != nil {
		return s, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(s); err != nil {
		return s, errors.Wrap(err, "validation failed")
	}
	return s, nil
}

// Pipeline advances its position with the clock while playing.
type Pipeline struct {
	mu sync.Mutex

	settings  Settings
	media     media.Media
	frameRate media.FrameRate

	state         pipeline.State
	basePos       time.Duration // position when playback last (re)started
	playStarted   time.Time
	durationKnown bool
	created       time.Time
	seekDone      bool // a seek completed and its position is not reported yet

	now     func() time.Time
	events  *pipeline.Broadcaster
	stopCh  chan struct{}
	wg      sync.WaitGroup
	stopped bool
}

// New creates a simulated pipeline for m and starts its clock.
// The media duration, when set, overrides Settings.Duration.
func New(m media.Media, settings Settings) *Pipeline {
	p := newPipeline(m, settings, time.Now)
	p.wg.Add(1)
	go p.run()
	return p
}

func newPipeline(m media.Media, settings Settings, now func() time.Time) *Pipeline {
	if m.Duration > 0 {
		settings.Duration = m.Duration
	}
	p := &Pipeline{
		settings:      settings,
		media:         m,
		frameRate:     m.FrameRate,
		state:         pipeline.StatePaused,
		durationKnown: settings.DiscoverDelay <= 0,
		now:           now,
		events:        pipeline.NewBroadcaster(),
		stopCh:        make(chan struct{}),
	}
	p.created = now()
	return p
}

// Verify Pipeline implements pipeline.Pipeline at compile time.
var _ pipeline.Pipeline = (*Pipeline)(nil)

func (p *Pipeline) Play() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	if p.state == pipeline.StatePlaying {
		p.mu.Unlock()
		return nil
	}
	if p.basePos >= p.settings.Duration {
		p.basePos = 0
	}
	p.state = pipeline.StatePlaying
	p.playStarted = p.now()
	p.mu.Unlock()

	zlog.Debug().Str("media", p.media.Name).Msg("simpipe: playing")
	p.events.EmitState(pipeline.StatePlaying)
	return nil
}

func (p *Pipeline) Pause() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	if p.state == pipeline.StatePaused {
		p.mu.Unlock()
		return nil
	}
	p.basePos = p.positionLocked()
	p.state = pipeline.StatePaused
	p.mu.Unlock()

	zlog.Debug().Str("media", p.media.Name).Msg("simpipe: paused")
	p.events.EmitState(pipeline.StatePaused)
	return nil
}

// Stop halts the clock and releases the pipeline. Safe to call more than once.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	p.state = pipeline.StatePaused
	p.basePos = 0
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// Seek jumps to target. The new position is reported on the next tick.
func (p *Pipeline) Seek(target pipeline.Target) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}

	pos := target.Time
	if target.Unit == pipeline.UnitFrame {
		if !p.frameRate.IsValid() {
			return errors.New("frame seek without frame rate")
		}
		pos = p.frameRate.TimeOf(target.Frame)
	}
	pos = min(max(pos, 0), p.settings.Duration)

	p.basePos = pos
	p.playStarted = p.now()
	p.seekDone = true
	return nil
}

func (p *Pipeline) Duration() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.durationKnown {
		return 0, false
	}
	return p.settings.Duration, true
}

func (p *Pipeline) Subscribe(h pipeline.Handlers) pipeline.Subscription {
	return p.events.Subscribe(h)
}

// Position returns the current clock position.
func (p *Pipeline) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *Pipeline) positionLocked() time.Duration {
	if p.state != pipeline.StatePlaying {
		return p.basePos
	}
	return min(p.basePos+p.now().Sub(p.playStarted), p.settings.Duration)
}

func (p *Pipeline) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.settings.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick emits the events accumulated since the previous tick.
func (p *Pipeline) tick() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}

	duration := p.settings.Duration
	pos := p.positionLocked()
	var discovered, emitPos, reachedEnd bool

	if !p.durationKnown && p.now().Sub(p.created) >= p.settings.DiscoverDelay {
		p.durationKnown = true
		discovered = true
	}
	if p.state == pipeline.StatePlaying {
		emitPos = true
		if pos >= duration {
			p.basePos = duration
			p.state = pipeline.StatePaused
			reachedEnd = true
		}
	}
	if p.seekDone {
		p.seekDone = false
		emitPos = true
	}
	p.mu.Unlock()

	if discovered {
		p.events.EmitDuration(duration)
	}
	if emitPos {
		p.events.EmitPosition(pos)
	}
	if reachedEnd {
		zlog.Debug().Str("media", p.media.Name).Msg("simpipe: end of stream")
		p.events.EmitState(pipeline.StatePaused)
	}
}
