package main

import (
	"context"
	"sync"

	"github.com/osa030/focusbox/internal/app/session"
	"github.com/osa030/focusbox/internal/app/source"
)

// trackIndex remembers the duration of every candidate a search returned so
// the simulated player can play them.
type trackIndex struct {
	source session.CandidateSource

	mu        sync.RWMutex
	durations map[string]int
}

func newTrackIndex(src session.CandidateSource) *trackIndex {
	return &trackIndex{source: src, durations: make(map[string]int)}
}

func (i *trackIndex) GetCandidates(ctx context.Context, query string, count int, excludeIDs map[string]bool) ([]source.CandidateWithSource, error) {
	found, err := i.source.GetCandidates(ctx, query, count, excludeIDs)
	for _, c := range found {
		i.remember(c.Candidate.ID, c.Candidate.DurationSec)
	}
	return found, err
}

func (i *trackIndex) remember(id string, durationSec int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.durations[id] = durationSec
}

func (i *trackIndex) lookup(id string) (int, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	d, ok := i.durations[id]
	return d, ok
}
