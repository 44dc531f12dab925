package state

import (
	"sync"
	"time"

	"github.com/osa030/seekbox/internal/domain/media"
)

// Manager manages session state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	sessionID string
	phase     Phase

	media    media.Media
	openedAt time.Time
	opens    int
}

// New creates a new state manager.
func New(sessionID string) *Manager {
	return &Manager{
		sessionID: sessionID,
		phase:     PhaseIdle,
	}
}

// GetSessionID returns the session ID.
func (m *Manager) GetSessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// GetPhase returns the current session phase.
func (m *Manager) GetPhase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// SetOpen records md as the open media. It is ignored once closed.
func (m *Manager) SetOpen(md media.Media, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhaseClosed {
		return
	}
	m.phase = PhaseOpen
	m.media = md
	m.openedAt = at
	m.opens++
}

// SetClosed moves the session to its terminal phase.
func (m *Manager) SetClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phase = PhaseClosed
	m.media = media.Media{}
}

// GetMedia returns the open media, if any.
func (m *Manager) GetMedia() (media.Media, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.media, m.phase == PhaseOpen
}

// GetOpenedAt returns when the current media was opened.
func (m *Manager) GetOpenedAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.openedAt
}

// GetOpenCount returns how many media have been opened.
func (m *Manager) GetOpenCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opens
}
