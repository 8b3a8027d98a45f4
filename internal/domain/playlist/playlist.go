// Package playlist provides the Segment and Queue domain entities and the
// duration-matching playlist builder.
package playlist

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/osa030/focusbox/internal/domain/track"
)

// Segment is a scheduled playback unit referencing one candidate track.
type Segment struct {
	TrackID           string // Candidate ID to load
	Title             string // Display title
	Artist            string // Display artist
	ArtworkURL        string // Display artwork
	StartOffsetSec    int    // Offset into the source track
	PlayDurationSec   int    // Effective play length
	SourceDurationSec int    // Full length of the source track
	Trimmed           bool   // True when PlayDurationSec < SourceDurationSec
}

// EndSec returns the offset at which playback of this segment stops.
func (s Segment) EndSec() int {
	return s.StartOffsetSec + s.PlayDurationSec
}

// PlayDuration returns the effective play length.
func (s Segment) PlayDuration() time.Duration {
	return time.Duration(s.PlayDurationSec) * time.Second
}

func newSegment(c track.Candidate, playSec int) Segment {
	return Segment{
		TrackID:           c.ID,
		Title:             c.Title,
		Artist:            c.Artist,
		ArtworkURL:        c.ArtworkURL,
		StartOffsetSec:    0,
		PlayDurationSec:   playSec,
		SourceDurationSec: c.DurationSec,
		Trimmed:           playSec < c.DurationSec,
	}
}

// Queue is an ordered sequence of segments built for one session.
// The playback cursor is owned by whichever controller drives the queue.
type Queue struct {
	ID          string           // Queue UUID
	SourceType  track.SourceType // Where the candidates came from
	Mood        string           // Mood the queue was built for
	Segments    []Segment        // Segments in play order
	AchievedSec int              // Sum of PlayDurationSec
	CreatedAt   time.Time
}

// NewQueue wraps a builder result into a fresh queue.
func NewQueue(sourceType track.SourceType, mood string, res Result) Queue {
	segments := make([]Segment, len(res.Segments))
	copy(segments, res.Segments)
	return Queue{
		ID:          uuid.New().String(),
		SourceType:  sourceType,
		Mood:        mood,
		Segments:    segments,
		AchievedSec: res.AchievedSec,
		CreatedAt:   time.Now(),
	}
}

// Len returns the number of segments.
func (q *Queue) Len() int {
	return len(q.Segments)
}

// TrackIDs returns the track IDs in play order.
func (q *Queue) TrackIDs() []string {
	return lo.Map(q.Segments, func(s Segment, _ int) string {
		return s.TrackID
	})
}

// FirstTrackID returns the first segment's track ID, or "" for an empty queue.
func (q *Queue) FirstTrackID() string {
	if len(q.Segments) == 0 {
		return ""
	}
	return q.Segments[0].TrackID
}

// TotalDuration returns the total play time of all segments in seconds.
func (q *Queue) TotalDuration() int {
	return totalPlaySec(q.Segments)
}

func totalPlaySec(segments []Segment) int {
	return lo.SumBy(segments, func(s Segment) int {
		return s.PlayDurationSec
	})
}
