package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/focusbox/internal/domain/track"
	"github.com/osa030/focusbox/internal/infra/config"
)

type mockProvider struct {
	name       string
	sourceType track.SourceType
	candidates []track.Candidate
	err        error
	gotExclude map[string]bool
}

func (m *mockProvider) GetCandidates(ctx context.Context, query string, count int, exclude map[string]bool) ([]track.Candidate, error) {
	m.gotExclude = make(map[string]bool, len(exclude))
	for k, v := range exclude {
		m.gotExclude[k] = v
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates, nil
}

func (m *mockProvider) Name() string                 { return m.name }
func (m *mockProvider) SourceType() track.SourceType { return m.sourceType }

func cands(ids ...string) []track.Candidate {
	out := make([]track.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, track.Candidate{ID: id, DurationSec: 100, Embeddable: true})
	}
	return out
}

func TestProviderChain_AccumulatesAndDeduplicates(t *testing.T) {
	first := &mockProvider{name: "catalog", sourceType: track.SourceTypeCatalog, candidates: cands("a", "b")}
	failing := &mockProvider{name: "broken", err: errors.New("boom")}
	second := &mockProvider{name: "static", sourceType: track.SourceTypeYouTube, candidates: cands("b", "c")}

	chain := NewProviderChain([]ProviderWithMetadata{
		{Provider: first, DisplayName: "First"},
		{Provider: failing, DisplayName: "Broken"},
		{Provider: second, DisplayName: "Second"},
	})

	got, err := chain.GetCandidates(context.Background(), "deep focus", 10, map[string]bool{"z": true})
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, c := range Candidates(got) {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, "Second", got[2].DisplayName)
	assert.Equal(t, track.SourceTypeYouTube, got[2].SourceType)

	assert.Equal(t, map[string]bool{"z": true}, first.gotExclude)
	assert.Equal(t, map[string]bool{"z": true, "a": true, "b": true}, second.gotExclude)
	assert.Equal(t, track.SourceTypeCatalog, PrimarySourceType(got))
	assert.Equal(t, 3, chain.Len())
}

func TestProviderChain_AllFail(t *testing.T) {
	chain := NewProviderChain([]ProviderWithMetadata{
		{Provider: &mockProvider{name: "x", err: errors.New("down")}, DisplayName: "X"},
		{Provider: &mockProvider{name: "y"}, DisplayName: "Y"},
	})

	_, err := chain.GetCandidates(context.Background(), "q", 5, nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestProviderChain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := NewProviderChain([]ProviderWithMetadata{
		{Provider: &mockProvider{name: "x", candidates: cands("a")}, DisplayName: "X"},
	})
	_, err := chain.GetCandidates(ctx, "q", 5, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrimarySourceType(t *testing.T) {
	assert.Equal(t, track.SourceType(""), PrimarySourceType(nil))

	list := []CandidateWithSource{
		{SourceType: track.SourceTypeCatalog},
		{SourceType: track.SourceTypeYouTube},
		{SourceType: track.SourceTypeYouTube},
	}
	assert.Equal(t, track.SourceTypeYouTube, PrimarySourceType(list))
}

func TestNewProviderChainFromConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tracks:\n  - {id: a, title: Deep Focus, duration_sec: 600}\n"), 0o644))

	cfg := &config.Config{Sources: config.SourcesConfig{Providers: []config.ProviderConfig{
		{Type: "catalog", DisplayName: "Catalog", Settings: map[string]any{"path": path}},
		{Type: "static", DisplayName: "Fallback", Settings: map[string]any{
			"tracks": []any{map[string]any{"id": "s1", "duration_sec": 300}},
		}},
	}}}

	chain, err := NewProviderChainFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, chain.Len())

	got, err := chain.GetCandidates(context.Background(), "deep", 10, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Candidate.ID)
	assert.Equal(t, "s1", got[1].Candidate.ID)

	t.Run("unsupported type", func(t *testing.T) {
		_, err := NewProviderChainFromConfig(&config.Config{Sources: config.SourcesConfig{
			Providers: []config.ProviderConfig{{Type: "youtube", DisplayName: "Y"}},
		}})
		assert.ErrorContains(t, err, "unsupported provider type")
	})

	t.Run("no providers", func(t *testing.T) {
		_, err := NewProviderChainFromConfig(&config.Config{})
		assert.Error(t, err)
	})

	t.Run("defaults merged under provider settings", func(t *testing.T) {
		cfg := &config.Config{Sources: config.SourcesConfig{
			Defaults: map[string]map[string]any{
				"catalog": {"path": path},
				"static":  {"tracks": []any{map[string]any{"id": "shared", "duration_sec": 300}}},
			},
			Providers: []config.ProviderConfig{
				{Type: "catalog", DisplayName: "Catalog"},
				{Type: "static", DisplayName: "Own", Settings: map[string]any{
					"tracks": []any{map[string]any{"id": "own", "duration_sec": 300}},
				}},
			},
		}}
		chain, err := NewProviderChainFromConfig(cfg)
		require.NoError(t, err)

		got, err := chain.GetCandidates(context.Background(), "deep", 10, nil)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Candidate.ID)
		assert.Equal(t, "own", got[1].Candidate.ID)
	})

	t.Run("missing catalog file", func(t *testing.T) {
		_, err := NewProviderChainFromConfig(&config.Config{Sources: config.SourcesConfig{
			Providers: []config.ProviderConfig{{Type: "catalog", DisplayName: "C", Settings: map[string]any{"path": filepath.Join(dir, "nope.yaml")}}},
		}})
		assert.ErrorContains(t, err, "index 0, type catalog")
	})
}

func TestMergeSettings(t *testing.T) {
	tests := []struct {
		name     string
		defaults map[string]any
		own      map[string]any
		expected map[string]any
	}{
		{"nothing", nil, nil, map[string]any{}},
		{"defaults only", map[string]any{"shuffle": true}, nil, map[string]any{"shuffle": true}},
		{"own wins", map[string]any{"shuffle": true, "path": "a"}, map[string]any{"shuffle": false},
			map[string]any{"shuffle": false, "path": "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mergeSettings(tt.defaults, tt.own))
		})
	}

	defaults := map[string]any{"path": "a"}
	mergeSettings(defaults, map[string]any{"path": "b"})
	assert.Equal(t, "a", defaults["path"], "defaults are not modified")
}

func TestProviderTypes(t *testing.T) {
	assert.Equal(t, []string{"catalog", "static"}, ProviderTypes())
}
