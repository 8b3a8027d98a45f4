// Package state provides focus session state tracking.
package state

import "time"

// Phase represents the session lifecycle phase.
type Phase int

const (
	PhaseIdle      Phase = iota // No session begun yet
	PhasePreparing              // Fetching candidates and building the queue
	PhaseActive                 // Queue playing, countdown running
	PhasePaused                 // Countdown and playback paused
	PhaseCompleted              // Playback finished on its own
	PhaseStopped                // Stopped by the user
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePreparing:
		return "preparing"
	case PhaseActive:
		return "active"
	case PhasePaused:
		return "paused"
	case PhaseCompleted:
		return "completed"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase ends a session.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseStopped
}

// Info is a snapshot of the session state.
type Info struct {
	SessionID string
	Phase     Phase
	Mood      string
	QueueID   string
	Reason    string // Completion reason once the phase is terminal
	Played    int    // Segments played before the session ended
	StartedAt *time.Time
	EndedAt   *time.Time
}
