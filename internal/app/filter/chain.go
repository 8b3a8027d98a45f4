package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/focusbox/internal/domain/track"
)

// Outcome is the result of running a chain over a candidate list.
type Outcome struct {
	Accepted []track.Candidate
	Rejected map[string]int // Rejection count per code
}

// RejectedCount returns the total number of rejected candidates.
func (o Outcome) RejectedCount() int {
	return lo.Sum(lo.Values(o.Rejected))
}

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Settings is the per-filter configuration consumed by NewChainFromConfig.
type Settings struct {
	Enabled  bool
	Settings map[string]any
}

// NewChainFromConfig builds a chain of the enabled registered filters, in name order.
func NewChainFromConfig(configs map[string]Settings) (*Chain, error) {
	c := NewChain()
	for _, name := range lo.Keys(configs) {
		if _, ok := registry[name]; !ok {
			return nil, errors.Newf("unknown filter: %s", name)
		}
	}
	for _, name := range Names() {
		cfg, ok := configs[name]
		if !ok || !cfg.Enabled {
			continue
		}
		f := registry[name]()
		if err := f.ValidateConfig(cfg.Settings); err != nil {
			return nil, errors.Wrapf(err, "invalid settings for %s", name)
		}
		c.Add(f)
		zlog.Debug().Msgf("filter: enabled: name=%s", name)
	}
	return c, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}

// Apply runs every candidate through the chain. A candidate is accepted only
// if no filter rejects it; the first rejection code is counted.
// Candidate order is preserved.
func (c *Chain) Apply(ctx context.Context, candidates []track.Candidate) Outcome {
	out := Outcome{
		Accepted: make([]track.Candidate, 0, len(candidates)),
		Rejected: make(map[string]int),
	}

	for _, cand := range candidates {
		if ctx.Err() != nil {
			zlog.Warn().Msgf("filter: apply interrupted: %v", ctx.Err())
			break
		}
		result := c.check(ctx, cand, out.Accepted)
		if !result.Accepted {
			out.Rejected[result.Code]++
			continue
		}
		out.Accepted = append(out.Accepted, cand)
	}

	zlog.Debug().Msgf("filter: applied: candidates=%d accepted=%d rejected=%v",
		len(candidates), len(out.Accepted), out.Rejected)
	return out
}

func (c *Chain) check(ctx context.Context, cand track.Candidate, accepted []track.Candidate) Result {
	for _, f := range c.filters {
		result := f.Check(ctx, cand, accepted)
		if !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Relaxed returns a copy of the chain with every Relaxer replaced by its looser variant.
func (c *Chain) Relaxed() *Chain {
	relaxed := NewChain()
	for _, f := range c.filters {
		if r, ok := f.(Relaxer); ok {
			relaxed.Add(r.Relaxed())
			continue
		}
		relaxed.Add(f)
	}
	return relaxed
}
