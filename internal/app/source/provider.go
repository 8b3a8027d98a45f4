// Package source provides candidate providers for focus playlists.
package source

import (
	"context"

	"github.com/osa030/focusbox/internal/domain/track"
)

// Provider is the interface for candidate providers.
// Implementations stand in for the external track-search service.
type Provider interface {
	// GetCandidates retrieves candidates for a mood query.
	// count: the number of candidates to retrieve
	// exclude: candidate IDs already collected (for duplicate avoidance)
	GetCandidates(ctx context.Context, query string, count int, exclude map[string]bool) ([]track.Candidate, error)

	// Name returns the provider name (used in config).
	Name() string

	// SourceType identifies where the candidates come from.
	SourceType() track.SourceType
}

// Searcher is a queryable candidate store.
type Searcher interface {
	Search(query string, limit int) []track.Candidate
}
