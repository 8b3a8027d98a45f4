package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/focusbox/internal/domain/track"
)

// DurationLimitConfig represents the configuration for DurationLimitFilter.
type DurationLimitConfig struct {
	MinSeconds        int `yaml:"min_seconds" mapstructure:"min_seconds" default:"60" validate:"gte=1"`
	MaxSeconds        int `yaml:"max_seconds" mapstructure:"max_seconds" default:"1800" validate:"gte=1"`
	RelaxedMinSeconds int `yaml:"relaxed_min_seconds" mapstructure:"relaxed_min_seconds" default:"30" validate:"gte=1"`
	RelaxedMaxSeconds int `yaml:"relaxed_max_seconds" mapstructure:"relaxed_max_seconds" default:"7200" validate:"gte=1"`
}

// DurationLimitFilter checks if candidate duration is within allowed limits.
type DurationLimitFilter struct {
	config *DurationLimitConfig
}

// NewDurationLimitFilter creates a new duration limit filter.
func NewDurationLimitFilter() *DurationLimitFilter {
	return &DurationLimitFilter{}
}

func (f *DurationLimitFilter) Name() string {
	return "duration_limit_filter"
}

func (f *DurationLimitFilter) Description() string {
	return "Rejects candidates that are too short or too long to schedule"
}

func (f *DurationLimitFilter) ReturnCodes() []string {
	return []string{"duration_limit_exceeded"}
}

func (f *DurationLimitFilter) ValidateConfig(settings map[string]any) error {
	var config DurationLimitConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}

	if config.MinSeconds > config.MaxSeconds {
		return errors.New("min_seconds cannot be greater than max_seconds")
	}
	if config.RelaxedMinSeconds > config.MinSeconds || config.RelaxedMaxSeconds < config.MaxSeconds {
		return errors.New("relaxed limits must be at least as wide as the strict limits")
	}
	f.config = &config
	zlog.Info().Msgf("duration limit filter config: %+v", config)
	return nil
}

// Relaxed returns the filter using the relaxed limits.
func (f *DurationLimitFilter) Relaxed() Filter {
	if f.config == nil {
		return f
	}
	relaxed := *f.config
	relaxed.MinSeconds = f.config.RelaxedMinSeconds
	relaxed.MaxSeconds = f.config.RelaxedMaxSeconds
	return &DurationLimitFilter{config: &relaxed}
}

func (f *DurationLimitFilter) Check(ctx context.Context, c track.Candidate, accepted []track.Candidate) Result {
	// If config is not set, accept all candidates
	if f.config == nil {
		return Accept()
	}

	if c.DurationSec < f.config.MinSeconds || c.DurationSec > f.config.MaxSeconds {
		return Reject("duration_limit_exceeded")
	}
	return Accept()
}

func init() {
	Register("duration_limit_filter", func() Filter {
		return NewDurationLimitFilter()
	})
}
