package source

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"

	"github.com/osa030/focusbox/internal/domain/track"
)

// StaticTrack is a candidate listed inline in the provider settings.
type StaticTrack struct {
	ID          string `mapstructure:"id" validate:"required"`
	Title       string `mapstructure:"title"`
	Artist      string `mapstructure:"artist"`
	DurationSec int    `mapstructure:"duration_sec" validate:"gte=1"`
	ArtworkURL  string `mapstructure:"artwork_url"`
}

// StaticProviderConfig represents the settings of a static provider.
type StaticProviderConfig struct {
	Tracks     []StaticTrack `mapstructure:"tracks" validate:"required,min=1,dive"`
	SourceType string        `mapstructure:"source_type" default:"youtube" validate:"oneof=youtube catalog"`
}

// StaticProvider always offers the same fixed tracks, whatever the query.
// It is meant as a last-resort provider at the end of the chain.
type StaticProvider struct {
	candidates []track.Candidate
	sourceType track.SourceType
}

// NewStaticProvider creates a StaticProvider from settings.
func NewStaticProvider(settings map[string]any) (*StaticProvider, error) {
	var config StaticProviderConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &config,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	candidates := lo.Map(config.Tracks, func(t StaticTrack, _ int) track.Candidate {
		return track.Candidate{
			ID:          t.ID,
			Title:       t.Title,
			Artist:      t.Artist,
			DurationSec: t.DurationSec,
			ArtworkURL:  t.ArtworkURL,
			Embeddable:  true,
		}
	})
	return &StaticProvider{candidates: candidates, sourceType: track.SourceType(config.SourceType)}, nil
}

// GetCandidates returns up to count configured tracks not in exclude.
func (p *StaticProvider) GetCandidates(ctx context.Context, query string, count int, exclude map[string]bool) ([]track.Candidate, error) {
	available := lo.Filter(p.candidates, func(c track.Candidate, _ int) bool {
		return !exclude[c.ID]
	})
	if len(available) > count {
		available = available[:max(count, 0)]
	}
	return available, nil
}

// Name returns the provider name.
func (p *StaticProvider) Name() string {
	return "static"
}

// SourceType returns the configured source type.
func (p *StaticProvider) SourceType() track.SourceType {
	return p.sourceType
}
