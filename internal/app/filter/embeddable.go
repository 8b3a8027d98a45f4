package filter

import (
	"context"

	"github.com/osa030/focusbox/internal/domain/track"
)

// EmbeddableFilter rejects candidates the owner does not allow in an embedded player.
type EmbeddableFilter struct{}

func (f *EmbeddableFilter) Name() string {
	return "embeddable_filter"
}

func (f *EmbeddableFilter) Description() string {
	return "Rejects candidates that cannot be played in the embedded player"
}

func (f *EmbeddableFilter) ReturnCodes() []string {
	return []string{"not_embeddable"}
}

func (f *EmbeddableFilter) ValidateConfig(settings map[string]any) error {
	return nil
}

func (f *EmbeddableFilter) Check(ctx context.Context, c track.Candidate, accepted []track.Candidate) Result {
	if !c.Embeddable {
		return Reject("not_embeddable")
	}
	return Accept()
}

func init() {
	Register("embeddable_filter", func() Filter {
		return &EmbeddableFilter{}
	})
}
