package filter

import (
	"context"
	"regexp"
	"strings"

	"github.com/osa030/focusbox/internal/domain/track"
)

// DuplicateTrackFilter rejects candidates already accepted in the same pass.
// Detects:
// - Exact track ID matches
// - Re-uploads (normalized title + same artist)
// Excludes:
// - Covers (same title but different artist)
type DuplicateTrackFilter struct{}

// NewDuplicateTrackFilter creates a new duplicate track filter.
func NewDuplicateTrackFilter() *DuplicateTrackFilter {
	return &DuplicateTrackFilter{}
}

// Name returns the filter name.
func (f *DuplicateTrackFilter) Name() string {
	return "duplicate_track_filter"
}

// Description returns the filter description.
func (f *DuplicateTrackFilter) Description() string {
	return "Rejects repeated tracks and re-uploads of the same recording; covers by other artists are allowed"
}

// ReturnCodes returns possible return codes.
func (f *DuplicateTrackFilter) ReturnCodes() []string {
	return []string{"duplicate_track"}
}

// ValidateConfig validates the filter configuration.
func (f *DuplicateTrackFilter) ValidateConfig(config map[string]any) error {
	// No configuration needed
	return nil
}

// Check checks if the candidate duplicates an accepted one.
func (f *DuplicateTrackFilter) Check(ctx context.Context, c track.Candidate, accepted []track.Candidate) Result {
	title := normalizeTitle(c.Title)
	for _, a := range accepted {
		if a.ID == c.ID {
			return Reject("duplicate_track")
		}
		if title != "" && normalizeTitle(a.Title) == title && isSameArtist(a, c) {
			return Reject("duplicate_track")
		}
	}
	return Accept()
}

var (
	// "(Official Video)", "[HD]", "(Remastered 2011)", "(Lyric Video)", "(Radio Edit)"
	bracketNoise = regexp.MustCompile(`\s*[\(\[][^\)\]]*\b(official|video|audio|lyrics?|visuali[sz]er|remaster(ed)?|hd|hq|4k|version|edit)\b[^\)\]]*[\)\]]`)
	// "- 2011 Remaster", "- Remastered Version", "- Live", "- Official Video"
	trailingNoise = regexp.MustCompile(`\s+-\s+(\d{4}\s+)?(remaster(ed)?|live|radio edit|single version|official (music )?video|audio)(\s+version)?$`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// normalizeTitle strips upload decorations and version details from a title.
func normalizeTitle(title string) string {
	normalized := strings.ToLower(title)
	normalized = bracketNoise.ReplaceAllString(normalized, "")
	normalized = trailingNoise.ReplaceAllString(normalized, "")
	normalized = whitespace.ReplaceAllString(strings.TrimSpace(normalized), " ")
	return strings.TrimRight(normalized, " -")
}

// isSameArtist compares artists case-insensitively. Unknown artists never match.
func isSameArtist(a, b track.Candidate) bool {
	if a.Artist == "" || b.Artist == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(a.Artist), strings.TrimSpace(b.Artist))
}

func init() {
	Register("duplicate_track_filter", func() Filter {
		return NewDuplicateTrackFilter()
	})
}
