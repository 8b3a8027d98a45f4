package source

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/samber/lo/mutable"

	"github.com/osa030/focusbox/internal/domain/track"
	"github.com/osa030/focusbox/internal/infra/catalog"
)

// CatalogProviderConfig represents the settings of a catalog provider.
type CatalogProviderConfig struct {
	Path    string `yaml:"path" mapstructure:"path" validate:"required"`
	Shuffle bool   `yaml:"shuffle" mapstructure:"shuffle"`
}

// CatalogProvider provides candidates from a YAML catalog.
type CatalogProvider struct {
	searcher Searcher
	shuffle  bool
	config   *CatalogProviderConfig
}

// NewCatalogProvider creates a CatalogProvider that loads the catalog named in settings.
func NewCatalogProvider(settings map[string]any) (*CatalogProvider, error) {
	var config CatalogProviderConfig
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	zlog.Debug().Msgf("catalog provider config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		zlog.Error().Msgf("catalog provider validation failed: %v", err)
		return nil, errors.Wrap(err, "validation failed")
	}

	c, err := catalog.Load(config.Path)
	if err != nil {
		return nil, err
	}
	zlog.Info().Msgf("catalog loaded: path=%s tracks=%d", config.Path, c.Len())

	return &CatalogProvider{searcher: c, shuffle: config.Shuffle, config: &config}, nil
}

// NewSearcherProvider creates a CatalogProvider over an already loaded store.
func NewSearcherProvider(s Searcher, shuffle bool) *CatalogProvider {
	return &CatalogProvider{searcher: s, shuffle: shuffle}
}

// GetCandidates returns up to count matching candidates not in exclude.
func (p *CatalogProvider) GetCandidates(ctx context.Context, query string, count int, exclude map[string]bool) ([]track.Candidate, error) {
	if count <= 0 {
		return []track.Candidate{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "catalog search cancelled")
	}

	matched := lo.Filter(p.searcher.Search(query, 0), func(c track.Candidate, _ int) bool {
		return !exclude[c.ID]
	})
	if p.shuffle {
		mutable.Shuffle(matched)
	}
	if len(matched) > count {
		matched = matched[:count]
	}
	return matched, nil
}

// Name returns the provider name.
func (p *CatalogProvider) Name() string {
	return "catalog"
}

// SourceType returns the catalog source type.
func (p *CatalogProvider) SourceType() track.SourceType {
	return track.SourceTypeCatalog
}
