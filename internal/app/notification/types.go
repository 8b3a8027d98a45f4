package notification

import (
	"time"

	"github.com/osa030/focusbox/internal/domain/playlist"
	"github.com/osa030/focusbox/internal/domain/track"
)

// Type represents a notification type.
type Type string

const (
	TypePlaylistReady    Type = "playlist_ready"
	TypeSessionCompleted Type = "session_completed"
	TypeTimer            Type = "timer"
)

// Notification is a broadcast message. Exactly one payload is set, matching Type.
type Notification struct {
	SequenceNo uint64
	Type       Type
	CreatedAt  time.Time

	PlaylistReady    *PlaylistReady
	SessionCompleted *SessionCompleted
	Timer            *TimerEvent
}

// PlaylistReady announces a freshly built queue.
type PlaylistReady struct {
	SourceType   track.SourceType
	FirstTrackID string
	Queue        playlist.Queue
}

// SessionCompleted announces the end of a session's playback.
type SessionCompleted struct {
	QueueID     string
	Mood        string
	Reason      string // "queue_exhausted" or "session_expired"
	PlayedCount int    // Segments that finished or were skipped
}

// TimerEvent relays a countdown lifecycle event.
type TimerEvent struct {
	Event     string // e.g. "session_start", "session_midpoint"
	Kind      string
	Remaining int
}

// NewPlaylistReady creates a playlist ready notification for q.
func NewPlaylistReady(q playlist.Queue) Notification {
	return Notification{
		Type: TypePlaylistReady,
		PlaylistReady: &PlaylistReady{
			SourceType:   q.SourceType,
			FirstTrackID: q.FirstTrackID(),
			Queue:        q,
		},
	}
}

// NewSessionCompleted creates a session completed notification.
func NewSessionCompleted(payload SessionCompleted) Notification {
	return Notification{Type: TypeSessionCompleted, SessionCompleted: &payload}
}

// NewTimer creates a timer notification.
func NewTimer(payload TimerEvent) Notification {
	return Notification{Type: TypeTimer, Timer: &payload}
}
