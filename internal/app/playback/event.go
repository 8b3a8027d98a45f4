package playback

import "github.com/osa030/focusbox/internal/domain/playlist"

// EventType represents a playback event type.
type EventType int

const (
	EventSegmentStarted EventType = iota // Segment loaded into the player
	EventSegmentEnded                    // Player reported the segment finished
	EventSegmentSkipped                  // Segment skipped (manual, unplayable or missing id)
	EventQueueCompleted                  // Queue finished or session expired
	EventSegmentStalled                  // Player not ready, segment waits for Skip or expiry
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventSegmentStarted:
		return "segment_started"
	case EventSegmentEnded:
		return "segment_ended"
	case EventSegmentSkipped:
		return "segment_skipped"
	case EventQueueCompleted:
		return "queue_completed"
	case EventSegmentStalled:
		return "segment_stalled"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type    EventType
	Index   int               // Cursor position of the segment
	Segment *playlist.Segment // nil for EventQueueCompleted
	Reason  CompletionReason  // Set for EventQueueCompleted
}
