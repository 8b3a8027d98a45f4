package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
sources:
  providers:
    - type: catalog
      display_name: Local catalog
      settings:
        path: catalog.yaml
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "stdout", cfg.Log.Output)
	assert.Equal(t, "Deep Work", cfg.Session.DefaultMood)
	assert.Equal(t, DefaultMoods(), cfg.Session.Moods)
	assert.Equal(t, 5, cfg.Session.Timer.ShortBreakMinutes)
	assert.Equal(t, 15, cfg.Session.Timer.LongBreakMinutes)
	assert.Equal(t, 4, cfg.Session.Timer.LongBreakEvery)
	assert.Equal(t, "focus-player", cfg.Player.HostID)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 10*time.Second, cfg.MountTimeout())
	assert.Equal(t, time.Second, cfg.SupervisionInterval())
	assert.Equal(t, 200, cfg.Playback.MaxSegments)
	assert.Equal(t, 25, cfg.Sources.CandidateCount)
	assert.Equal(t, 1.0, cfg.Simulator.Speed)
	assert.True(t, cfg.IsFilterEnabled("duration_limit_filter"))
	assert.True(t, cfg.IsFilterEnabled("embeddable_filter"))
	assert.True(t, cfg.IsFilterEnabled("duplicate_track_filter"))
	assert.False(t, cfg.IsFilterEnabled("unknown_filter"))
}

func TestParse_ExplicitValues(t *testing.T) {
	yaml := `
log:
  level: debug
session:
  default_mood: Sprint
  moods:
    - name: Sprint
      minutes: 15
    - name: Marathon
      minutes: 120
      query: long ambient
player:
  poll_interval_ms: 250
playback:
  max_segments: 50
filters:
  embeddable_filter:
    enabled: true
sources:
  candidate_count: 10
  providers:
    - type: static
      display_name: Fallback
`
	cfg, err := Parse([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Session.Moods, 2)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 50, cfg.Playback.MaxSegments)
	assert.Equal(t, 10, cfg.Sources.CandidateCount)
	assert.True(t, cfg.IsFilterEnabled("embeddable_filter"))
	assert.False(t, cfg.IsFilterEnabled("duration_limit_filter"))

	m, ok := cfg.Mood("marathon")
	require.True(t, ok)
	assert.Equal(t, 2*time.Hour, m.Duration())
	assert.Equal(t, "long ambient", m.SearchQuery())

	m, ok = cfg.Mood(" Sprint ")
	require.True(t, ok)
	assert.Equal(t, "sprint", m.SearchQuery())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{
			name:   "no providers",
			yaml:   `log: {level: info}`,
			errMsg: "Providers",
		},
		{
			name:   "provider without type",
			yaml:   "sources:\n  providers:\n    - display_name: x\n",
			errMsg: "Type",
		},
		{
			name:   "poll interval too fast",
			yaml:   minimalYAML + "player:\n  poll_interval_ms: 100\n",
			errMsg: "PollIntervalMs",
		},
		{
			name:   "unknown log level",
			yaml:   minimalYAML + "log:\n  level: chatty\n",
			errMsg: "Level",
		},
		{
			name:   "default mood missing",
			yaml:   minimalYAML + "session:\n  default_mood: Nap\n",
			errMsg: "default_mood (Nap)",
		},
		{
			name:   "duplicate mood",
			yaml:   minimalYAML + "session:\n  default_mood: A\n  moods:\n    - {name: A, minutes: 5}\n    - {name: a, minutes: 10}\n",
			errMsg: "duplicate mood",
		},
		{
			name:   "mood without minutes",
			yaml:   minimalYAML + "session:\n  default_mood: A\n  moods:\n    - {name: A}\n",
			errMsg: "Minutes",
		},
		{
			name:   "malformed yaml",
			yaml:   "sources: [",
			errMsg: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("FOCUSBOX_CATALOG_PATH", "/data/catalog.yaml")
	t.Setenv("FOCUSBOX_LOG_LEVEL", "WARN")
	t.Setenv("FOCUSBOX_DEFAULT_MOOD", "Light Focus")

	cfg, err := Parse([]byte(minimalYAML + `    - type: static
      display_name: Fallback
`))
	require.NoError(t, err)

	assert.Equal(t, "/data/catalog.yaml", cfg.Sources.Providers[0].Settings["path"])
	assert.Nil(t, cfg.Sources.Providers[1].Settings)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "Light Focus", cfg.Session.DefaultMood)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "focusbox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "catalog", cfg.Sources.Providers[0].Type)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}
