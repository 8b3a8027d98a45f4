// Package playback drives sequential playback of a built queue and enforces the session deadline.
package playback

// State represents the controller state.
type State int

const (
	StateIdle      State = iota // No queue started
	StatePlaying                // Driving a queue
	StateCompleted              // Queue exhausted
	StateExpired                // Session clock ran out
	StateDestroyed              // Torn down
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateCompleted:
		return "completed"
	case StateExpired:
		return "expired"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// CompletionReason tells why a queue stopped playing.
type CompletionReason int

const (
	ReasonQueueExhausted CompletionReason = iota // Every segment played
	ReasonSessionExpired                         // Session clock reached zero
)

// String returns the string representation of the reason.
func (r CompletionReason) String() string {
	switch r {
	case ReasonQueueExhausted:
		return "queue_exhausted"
	case ReasonSessionExpired:
		return "session_expired"
	default:
		return "unknown"
	}
}
