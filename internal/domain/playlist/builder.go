package playlist

import (
	"sort"

	"github.com/samber/lo"

	"github.com/osa030/focusbox/internal/domain/track"
)

// DefaultMaxSegments bounds how many segments the loop fallback may produce.
const DefaultMaxSegments = 200

// Result is the output of a playlist build.
type Result struct {
	Segments    []Segment // Segments in play order
	AchievedSec int       // Total play time of Segments
	Looped      bool      // The shortest candidate was repeated to fill the target
	Capped      bool      // The loop fallback stopped at MaxSegments before reaching the target
}

// Builder fills a target duration with candidate tracks.
type Builder struct {
	MaxSegments int // Segment cap for the loop fallback (0 = DefaultMaxSegments)
}

// Build fills targetSec with candidates using the default builder.
func Build(candidates []track.Candidate, targetSec int) Result {
	return Builder{}.Build(candidates, targetSec)
}

// Build fills targetSec with candidates.
//
// Candidates are sorted by ascending duration and appended at full length until
// the running total reaches the target; the last appended segment is trimmed by
// the overshoot. When all candidates together are too short, the shortest one is
// repeated until the target is reached or MaxSegments is hit.
// Invalid input yields an empty result. The output depends only on the input
// order and values.
func (b Builder) Build(candidates []track.Candidate, targetSec int) Result {
	empty := Result{Segments: []Segment{}}
	if targetSec <= 0 {
		return empty
	}

	sorted := lo.Filter(candidates, func(c track.Candidate, _ int) bool {
		return c.Valid()
	})
	if len(sorted) == 0 {
		return empty
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DurationSec < sorted[j].DurationSec
	})

	shortest := sorted[0]
	if shortest.DurationSec >= targetSec {
		return Result{
			Segments:    []Segment{newSegment(shortest, targetSec)},
			AchievedSec: targetSec,
		}
	}

	segments := make([]Segment, 0, len(sorted))
	total := 0
	for _, c := range sorted {
		segments = append(segments, newSegment(c, c.DurationSec))
		total += c.DurationSec
		if total >= targetSec {
			trimLast(segments, total-targetSec)
			return Result{Segments: segments, AchievedSec: targetSec}
		}
	}

	res := Result{}
	limit := b.maxSegments()
	for total < targetSec {
		if len(segments) >= limit {
			res.Capped = true
			break
		}
		res.Looped = true
		segments = append(segments, newSegment(shortest, shortest.DurationSec))
		total += shortest.DurationSec
		if total >= targetSec {
			trimLast(segments, total-targetSec)
			total = totalPlaySec(segments)
		}
	}

	res.Segments = segments
	res.AchievedSec = total
	return res
}

func (b Builder) maxSegments() int {
	if b.MaxSegments <= 0 {
		return DefaultMaxSegments
	}
	return b.MaxSegments
}

// trimLast shortens the last segment by overshoot seconds, never below 1 second.
func trimLast(segments []Segment, overshoot int) {
	if overshoot <= 0 || len(segments) == 0 {
		return
	}
	last := &segments[len(segments)-1]
	last.PlayDurationSec = max(1, last.SourceDurationSec-overshoot)
	last.Trimmed = last.PlayDurationSec < last.SourceDurationSec
}
