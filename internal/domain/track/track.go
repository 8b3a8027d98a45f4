// Package track provides the Candidate domain entity.
package track

import "time"

// Candidate represents a track returned by a search source that may be
// scheduled into a focus playlist.
type Candidate struct {
	ID          string // External video/track ID
	Title       string // Track title
	Artist      string // Artist or channel name
	DurationSec int    // Full source duration in seconds
	ArtworkURL  string // Thumbnail URL
	Embeddable  bool   // Playable inside the embedded player
}

// Valid reports whether the candidate can be scheduled.
// Candidates without an ID or with a non-positive duration are dropped before use.
func (c *Candidate) Valid() bool {
	return c.ID != "" && c.DurationSec > 0
}

// Duration returns the full source duration.
func (c *Candidate) Duration() time.Duration {
	return time.Duration(c.DurationSec) * time.Second
}

// SourceType identifies where candidates were fetched from.
type SourceType string

const (
	SourceTypeYouTube SourceType = "youtube"
	SourceTypeCatalog SourceType = "catalog"
)
