// Package timer provides the focus/break countdown that owns the session clock.
package timer

// Status represents the countdown status.
type Status int

const (
	StatusIdle    Status = iota // Not started or stopped
	StatusRunning               // Counting down
	StatusPaused                // Paused by the user
	StatusDone                  // Reached zero
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusDone:
		return "done"
	default:
		return "unknown"
	}
}

// Kind is the type of interval being timed.
type Kind string

const (
	KindPomodoro   Kind = "pomodoro"
	KindShortBreak Kind = "short_break"
	KindLongBreak  Kind = "long_break"
)

// EventType represents a countdown lifecycle event.
type EventType int

const (
	EventStart    EventType = iota // Countdown started
	EventPause                     // Countdown paused
	EventResume                    // Countdown resumed
	EventMidpoint                  // Half of the interval elapsed
	EventEnd                       // Countdown reached zero
	EventStop                      // Countdown stopped before reaching zero
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStart:
		return "session_start"
	case EventPause:
		return "session_pause"
	case EventResume:
		return "session_resume"
	case EventMidpoint:
		return "session_midpoint"
	case EventEnd:
		return "session_end"
	case EventStop:
		return "session_stop"
	default:
		return "unknown"
	}
}

// Event is emitted on countdown transitions.
type Event struct {
	Type      EventType
	Kind      Kind
	Remaining int // Remaining seconds at the time of the event
}
