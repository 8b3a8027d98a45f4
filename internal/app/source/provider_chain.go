package source

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/focusbox/internal/domain/track"
)

// ErrNoCandidates is returned when no provider produced a candidate.
var ErrNoCandidates = errors.New("all providers failed to return candidates")

// CandidateWithSource represents a candidate with its source provider info.
type CandidateWithSource struct {
	Candidate   track.Candidate
	SourceType  track.SourceType
	DisplayName string
}

// ProviderWithMetadata wraps a provider with its metadata.
type ProviderWithMetadata struct {
	Provider    Provider
	DisplayName string
}

// ProviderChain collects candidates from multiple providers in order.
type ProviderChain struct {
	providers []ProviderWithMetadata
}

// NewProviderChain creates a new provider chain.
func NewProviderChain(providers []ProviderWithMetadata) *ProviderChain {
	return &ProviderChain{
		providers: providers,
	}
}

// GetCandidates retrieves candidates from all providers.
// All providers are tried to maximize the candidate pool for filtering;
// candidates already returned by an earlier provider are excluded.
func (c *ProviderChain) GetCandidates(ctx context.Context, query string, count int, excludeIDs map[string]bool) ([]CandidateWithSource, error) {
	var allCandidates []CandidateWithSource
	currentExcludeIDs := make(map[string]bool, len(excludeIDs))
	for k, v := range excludeIDs {
		currentExcludeIDs[k] = v
	}

	for i, pm := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "candidate search cancelled")
		}
		zlog.Debug().Msgf("trying provider: index=%d total=%d name=%s provider_type=%s query=%q",
			i+1, len(c.providers), pm.DisplayName, pm.Provider.Name(), query)

		candidates, err := pm.Provider.GetCandidates(ctx, query, count, currentExcludeIDs)
		if err != nil {
			zlog.Warn().Msgf("provider failed, trying next: provider=%s error=%v", pm.DisplayName, err)
			continue
		}

		if len(candidates) == 0 {
			zlog.Debug().Msgf("provider returned no candidates: provider=%s", pm.DisplayName)
			continue
		}

		added := 0
		for _, cand := range candidates {
			if currentExcludeIDs[cand.ID] {
				continue
			}
			allCandidates = append(allCandidates, CandidateWithSource{
				Candidate:   cand,
				SourceType:  pm.Provider.SourceType(),
				DisplayName: pm.DisplayName,
			})
			// Update exclude set to avoid duplicates from next provider
			currentExcludeIDs[cand.ID] = true
			added++
		}

		zlog.Info().Msgf("provider returned candidates: provider=%s count=%d total_so_far=%d",
			pm.DisplayName, added, len(allCandidates))
	}

	if len(allCandidates) == 0 {
		return nil, ErrNoCandidates
	}

	return allCandidates, nil
}

// Name returns the chain name.
func (c *ProviderChain) Name() string {
	return "provider_chain"
}

// Len returns the number of providers.
func (c *ProviderChain) Len() int {
	return len(c.providers)
}

// Candidates strips the source info.
func Candidates(list []CandidateWithSource) []track.Candidate {
	return lo.Map(list, func(c CandidateWithSource, _ int) track.Candidate {
		return c.Candidate
	})
}

// PrimarySourceType returns the source type contributing the most candidates,
// preferring the earliest on ties.
func PrimarySourceType(list []CandidateWithSource) track.SourceType {
	if len(list) == 0 {
		return ""
	}
	counts := lo.CountValuesBy(list, func(c CandidateWithSource) track.SourceType {
		return c.SourceType
	})
	best := list[0].SourceType
	for _, c := range list {
		if counts[c.SourceType] > counts[best] {
			best = c.SourceType
		}
	}
	return best
}
