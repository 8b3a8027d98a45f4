package source

import (
	"slices"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/focusbox/internal/infra/config"
)

type constructor func(settings map[string]any) (Provider, error)

var constructors = map[string]constructor{
	"catalog": func(s map[string]any) (Provider, error) { return NewCatalogProvider(s) },
	"static":  func(s map[string]any) (Provider, error) { return NewStaticProvider(s) },
}

// ProviderTypes returns the provider types the factory can build, sorted.
func ProviderTypes() []string {
	types := lo.Keys(constructors)
	slices.Sort(types)
	return types
}

// mergeSettings layers a provider's own settings over the shared defaults
// for its type. Keys set on the provider win.
func mergeSettings(defaults, own map[string]any) map[string]any {
	return lo.Assign(map[string]any{}, defaults, own)
}

// NewProviderChainFromConfig builds one provider per configured entry, in
// order, with sources.defaults merged under each entry's settings.
func NewProviderChainFromConfig(cfg *config.Config) (*ProviderChain, error) {
	if len(cfg.Sources.Providers) == 0 {
		return nil, errors.New("no candidate providers configured")
	}

	providers := make([]ProviderWithMetadata, 0, len(cfg.Sources.Providers))
	for i, pcfg := range cfg.Sources.Providers {
		build, ok := constructors[pcfg.Type]
		if !ok {
			return nil, errors.Newf("unsupported provider type: %s (provider index %d, known %v)",
				pcfg.Type, i, ProviderTypes())
		}

		settings := mergeSettings(cfg.Sources.Defaults[pcfg.Type], pcfg.Settings)
		zlog.Debug().Msgf("source: building provider: index=%d type=%s settings=%+v", i, pcfg.Type, settings)
		provider, err := build(settings)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create provider (index %d, type %s)", i, pcfg.Type)
		}

		providers = append(providers, ProviderWithMetadata{
			Provider:    provider,
			DisplayName: pcfg.DisplayName,
		})
		zlog.Info().Msgf("source: provider registered: index=%d type=%s display_name=%s", i, pcfg.Type, pcfg.DisplayName)
	}

	return NewProviderChain(providers), nil
}
