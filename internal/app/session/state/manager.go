package state

import (
	"sync"
	"time"
)

// Manager manages session state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Session identity
	sessionID string
	mood      string
	queueID   string

	// Session lifecycle
	phase  Phase
	reason string
	played int

	// Schedule
	startedAt *time.Time
	endedAt   *time.Time

	now func() time.Time
}

// New creates a state manager in the idle phase.
func New() *Manager {
	return &Manager{phase: PhaseIdle, now: time.Now}
}

// Prepare starts tracking a new session and clears the previous one.
func (m *Manager) Prepare(sessionID, mood string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionID = sessionID
	m.mood = mood
	m.queueID = ""
	m.phase = PhasePreparing
	m.reason = ""
	m.played = 0
	m.startedAt = nil
	m.endedAt = nil
}

// Activate marks the session as playing queueID.
func (m *Manager) Activate(queueID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.queueID = queueID
	m.phase = PhaseActive
	m.startedAt = &now
}

// Abort returns a preparing session to idle.
func (m *Manager) Abort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase == PhasePreparing {
		m.phase = PhaseIdle
	}
}

// SetPaused toggles between the active and paused phases.
// Returns false when the session is in neither.
func (m *Manager) SetPaused(paused bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case paused && m.phase == PhaseActive:
		m.phase = PhasePaused
	case !paused && m.phase == PhasePaused:
		m.phase = PhaseActive
	default:
		return false
	}
	return true
}

// Finish moves the session into a terminal phase, recording how many
// segments were played. Terminal phases are kept.
func (m *Manager) Finish(phase Phase, reason string, played int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !phase.Terminal() || m.phase.Terminal() || m.phase == PhaseIdle {
		return false
	}
	now := m.now()
	m.phase = phase
	m.reason = reason
	m.played = played
	m.endedAt = &now
	return true
}

// GetPhase returns the current session phase.
func (m *Manager) GetPhase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// GetSessionID returns the session ID.
func (m *Manager) GetSessionID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// Info returns a snapshot of the state.
func (m *Manager) Info() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Info{
		SessionID: m.sessionID,
		Phase:     m.phase,
		Mood:      m.mood,
		QueueID:   m.queueID,
		Reason:    m.reason,
		Played:    m.played,
		StartedAt: m.startedAt,
		EndedAt:   m.endedAt,
	}
}
