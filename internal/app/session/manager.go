// Package session provides the viewer session manager. It owns the event
// loop and exposes goroutine-safe wrappers around the seek coordinator and
// transport controls.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/seekbox/internal/app/eventloop"
	"github.com/osa030/seekbox/internal/app/notification"
	"github.com/osa030/seekbox/internal/app/pipeline"
	"github.com/osa030/seekbox/internal/app/seek"
	"github.com/osa030/seekbox/internal/app/session/state"
	"github.com/osa030/seekbox/internal/app/transport"
	"github.com/osa030/seekbox/internal/domain/media"
)

// ErrSessionClosed is returned by operations on a closed session.
var ErrSessionClosed = errors.New("session is closed")

// updateBuffer is the number of events queued for the dispatcher.
const updateBuffer = 64

// Config holds session configuration.
type Config struct {
	Seek      seek.Config
	Transport transport.Config
}

// Status is a point-in-time view of the session.
type Status struct {
	SessionID string
	Phase     state.Phase
	Media     media.Media
	Snapshot  seek.Snapshot
	View      transport.View
}

// Event is delivered to listeners after every coordinator update.
type Event struct {
	Kind   seek.UpdateKind
	Status Status
	Err    error
}

// Manager manages one viewer session.
type Manager struct {
	config  Config
	factory pipeline.Factory

	stateMgr     *state.Manager
	notification *notification.Manager

	// Loop-owned
	loop     *eventloop.Loop
	coord    *seek.Coordinator
	controls *transport.Controls
	unwatch  func()

	updates chan Event

	listenersMu sync.RWMutex
	listeners   map[uint64]func(Event)
	nextID      uint64

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	done      chan struct{}
}

// NewManager creates a session and starts its event loop.
func NewManager(factory pipeline.Factory, cfg Config) (*Manager, error) {
	if factory == nil {
		return nil, errors.New("pipeline factory is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	loop := eventloop.New()
	coord := seek.New(loop, cfg.Seek)

	m := &Manager{
		config:       cfg,
		factory:      factory,
		stateMgr:     state.New(uuid.New().String()),
		notification: notification.NewManager(),
		loop:         loop,
		coord:        coord,
		controls:     transport.New(coord, cfg.Transport),
		updates:      make(chan Event, updateBuffer),
		listeners:    make(map[uint64]func(Event)),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zlog.Error().Err(err).Msg("session: event loop stopped")
		}
	}()
	go m.dispatchLoop()

	if err := loop.Do(ctx, func() { m.unwatch = coord.Watch(m.onUpdate) }); err != nil {
		m.Close()
		return nil, errors.Wrap(err, "failed to start session")
	}

	zlog.Info().Msgf("session created: session_id=%s", m.stateMgr.GetSessionID())
	return m, nil
}

// SessionID returns the session identifier.
func (m *Manager) SessionID() string {
	return m.stateMgr.GetSessionID()
}

// Notifications returns the notification manager used for watch streams.
func (m *Manager) Notifications() *notification.Manager {
	return m.notification
}

// Done is closed once the session has been closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Open builds a pipeline for uri and makes it the current one. The
// previous pipeline is detached and stopped; the new one starts paused.
func (m *Manager) Open(ctx context.Context, uri string) error {
	if uri == "" {
		return errors.New("media uri is required")
	}
	if m.stateMgr.GetPhase() == state.PhaseClosed {
		return ErrSessionClosed
	}

	md := media.New(uri)
	p, err := m.factory(md)
	if err != nil {
		return errors.Wrapf(err, "failed to create pipeline for %s", uri)
	}

	// Not cancellable once the pipeline exists, or it could be attached
	// after the caller gave up on it.
	if err := m.run(context.WithoutCancel(ctx), func() error { return m.setPipeline(md, p) }); err != nil {
		_ = p.Stop()
		return err
	}

	zlog.Info().Msgf("media opened: name=%s uri=%s", md.Name, md.URI)
	return nil
}

// setPipeline runs on the loop.
func (m *Manager) setPipeline(md media.Media, p pipeline.Pipeline) error {
	m.coord.Detach()
	if err := m.coord.Attach(p); err != nil {
		return err
	}
	m.stateMgr.SetOpen(md, time.Now())
	if err := m.coord.Pause(); err != nil {
		zlog.Warn().Err(err).Msg("session: failed to pause new pipeline")
	}
	return nil
}

// Seek requests an absolute-time seek.
func (m *Manager) Seek(ctx context.Context, pos time.Duration) error {
	return m.run(ctx, func() error {
		return m.coord.RequestSeek(pipeline.AtTime(pos))
	})
}

// StepFrame moves delta frames and enters frame stepping.
func (m *Manager) StepFrame(ctx context.Context, delta int64) error {
	return m.Control(ctx, func(c *transport.Controls) error { return c.StepFrame(delta) })
}

// Toggle toggles play/pause.
func (m *Manager) Toggle(ctx context.Context) error {
	return m.Control(ctx, func(c *transport.Controls) error { return c.PlayPause() })
}

// Scroll moves one scroll step in dir.
func (m *Manager) Scroll(ctx context.Context, dir transport.Direction) error {
	return m.Control(ctx, func(c *transport.Controls) error { return c.Scroll(dir) })
}

// Control runs fn against the transport controls on the loop.
func (m *Manager) Control(ctx context.Context, fn func(c *transport.Controls) error) error {
	return m.run(ctx, func() error { return fn(m.controls) })
}

// Status returns the current session status.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	var s Status
	err := m.run(ctx, func() error {
		s = m.statusLocked(m.coord.Snapshot())
		return nil
	})
	return s, err
}

// Subscribe registers fn for every session event. fn runs on the
// dispatcher goroutine, never on the loop. The returned func removes it.
func (m *Manager) Subscribe(fn func(Event)) (cancel func()) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners[id] = fn
	return func() {
		m.listenersMu.Lock()
		defer m.listenersMu.Unlock()
		delete(m.listeners, id)
	}
}

// Close detaches the pipeline and stops the session. Safe to call more
// than once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		err := m.loop.Do(context.Background(), func() {
			if m.unwatch != nil {
				m.unwatch()
			}
			m.coord.Detach()
		})
		if err != nil {
			zlog.Debug().Err(err).Msg("session: loop already stopped")
		}
		m.stateMgr.SetClosed()

		m.loop.Close()
		<-m.loop.Done()
		m.cancel()
		m.wg.Wait()

		m.notification.Close()
		close(m.done)
		zlog.Info().Msgf("session closed: session_id=%s", m.stateMgr.GetSessionID())
	})
}

// run executes fn on the loop and returns its error.
func (m *Manager) run(ctx context.Context, fn func() error) error {
	var opErr error
	if err := m.loop.Do(ctx, func() { opErr = fn() }); err != nil {
		if errors.Is(err, eventloop.ErrClosed) {
			return ErrSessionClosed
		}
		return err
	}
	return opErr
}

// statusLocked must run on the loop.
func (m *Manager) statusLocked(snap seek.Snapshot) Status {
	md, _ := m.stateMgr.GetMedia()
	return Status{
		SessionID: m.stateMgr.GetSessionID(),
		Phase:     m.stateMgr.GetPhase(),
		Media:     md,
		Snapshot:  snap,
		View:      m.controls.ViewOf(snap),
	}
}

// onUpdate runs on the loop; it must not block.
func (m *Manager) onUpdate(u seek.Update) {
	ev := Event{Kind: u.Kind, Status: m.statusLocked(u.Snapshot), Err: u.Err}
	select {
	case m.updates <- ev:
	default:
		zlog.Warn().Msgf("session: event dropped: kind=%s", u.Kind)
	}
}

func (m *Manager) dispatchLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case ev := <-m.updates:
			m.dispatch(ev)
		}
	}
}

func (m *Manager) dispatch(ev Event) {
	m.listenersMu.RLock()
	fns := make([]func(Event), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}

	if m.notification.SubscriberCount() > 0 {
		m.notification.Broadcast(ev.Struct())
	}
}
