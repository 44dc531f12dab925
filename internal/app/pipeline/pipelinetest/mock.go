// Package pipelinetest provides a recording pipeline for tests.
package pipelinetest

import (
	"sync"
	"time"

	"github.com/osa030/seekbox/internal/app/pipeline"
)

// Mock is a test double for pipeline.Pipeline. It records every call and
// only emits events when told to.
type Mock struct {
	mu sync.Mutex

	duration      time.Duration
	durationKnown bool

	reportState bool // emit state-changed on successful Play/Pause

	seekErr  error
	playErr  error
	pauseErr error

	seekCalls  []pipeline.Target
	playCalls  int
	pauseCalls int
	stopCalls  int

	events *pipeline.Broadcaster
}

// NewMock creates a mock with unknown duration.
func NewMock() *Mock {
	return &Mock{events: pipeline.NewBroadcaster()}
}

func (m *Mock) Play() error {
	return m.setState(pipeline.StatePlaying)
}

func (m *Mock) Pause() error {
	return m.setState(pipeline.StatePaused)
}

func (m *Mock) setState(s pipeline.State) error {
	m.mu.Lock()
	err := m.pauseErr
	if s == pipeline.StatePlaying {
		m.playCalls++
		err = m.playErr
	} else {
		m.pauseCalls++
	}
	report := m.reportState && err == nil
	m.mu.Unlock()

	if report {
		m.events.EmitState(s)
	}
	return err
}

func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	return nil
}

func (m *Mock) Seek(target pipeline.Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekCalls = append(m.seekCalls, target)
	return m.seekErr
}

func (m *Mock) Duration() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration, m.durationKnown
}

func (m *Mock) Subscribe(h pipeline.Handlers) pipeline.Subscription {
	return m.events.Subscribe(h)
}

// Test helpers

// SetDuration makes Duration report d without emitting an event.
func (m *Mock) SetDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration, m.durationKnown = d, true
}

// SetReportState makes Play and Pause emit state-changed the way real
// backends do.
func (m *Mock) SetReportState(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportState = on
}

func (m *Mock) SetSeekError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seekErr = err
}

func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

func (m *Mock) SetPauseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseErr = err
}

// SeekCalls returns a copy of the recorded seek targets.
func (m *Mock) SeekCalls() []pipeline.Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pipeline.Target, len(m.seekCalls))
	copy(out, m.seekCalls)
	return out
}

func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *Mock) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *Mock) StopCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalls
}

// Subscribers returns the number of live subscriptions.
func (m *Mock) Subscribers() int {
	return m.events.Len()
}

// EmitPosition simulates a position event.
func (m *Mock) EmitPosition(pos time.Duration) { m.events.EmitPosition(pos) }

// EmitState simulates a state-changed event.
func (m *Mock) EmitState(s pipeline.State) { m.events.EmitState(s) }

// EmitDuration updates the duration and simulates a duration-changed event.
func (m *Mock) EmitDuration(d time.Duration) {
	m.SetDuration(d)
	m.events.EmitDuration(d)
}

// Verify Mock implements pipeline.Pipeline at compile time.
var _ pipeline.Pipeline = (*Mock)(nil)
