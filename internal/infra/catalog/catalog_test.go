package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
tracks:
  - id: lofi-1
    title: Deep Focus Lofi
    artist: Lofi Girl
    duration_sec: 600
    tags: [deep work, study]
  - id: rain-1
    title: Rain Sounds
    duration_sec: 1200
    embeddable: false
    tags: [deep focus, nature]
  - id: piano-1
    title: Light Piano
    artist: Piano Covers
    duration_sec: 300
    artwork_url: https://img.example.com/piano.jpg
    tags: [light focus]
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	rain, ok := c.Lookup("rain-1")
	require.True(t, ok)
	assert.Equal(t, "Unknown artist", rain.Artist)
	assert.False(t, rain.Embeddable)
	assert.Equal(t, 1200, rain.DurationSec)

	lofi, ok := c.Lookup("lofi-1")
	require.True(t, ok)
	assert.True(t, lofi.Embeddable)

	_, ok = c.Lookup("missing")
	assert.False(t, ok)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{name: "missing id", yaml: "tracks:\n  - {title: x, duration_sec: 10}\n", errMsg: "ID"},
		{name: "missing title", yaml: "tracks:\n  - {id: x, duration_sec: 10}\n", errMsg: "Title"},
		{name: "bad artwork url", yaml: "tracks:\n  - {id: x, title: y, artwork_url: not a url}\n", errMsg: "ArtworkURL"},
		{name: "duplicate id", yaml: "tracks:\n  - {id: x, title: a}\n  - {id: x, title: b}\n", errMsg: "duplicate track id"},
		{name: "malformed", yaml: "tracks: {", errMsg: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSearch(t *testing.T) {
	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	ids := func(query string, limit int) []string {
		var out []string
		for _, cand := range c.Search(query, limit) {
			out = append(out, cand.ID)
		}
		return out
	}

	assert.Equal(t, []string{"lofi-1", "rain-1"}, ids("deep focus", 0))
	assert.Equal(t, []string{"lofi-1"}, ids("deep focus", 1))
	assert.Equal(t, []string{"piano-1"}, ids("LIGHT", 0))
	assert.Equal(t, []string{"lofi-1", "rain-1", "piano-1"}, ids("", 0))
	assert.Empty(t, ids("heavy metal", 0))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	_, err = Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorContains(t, err, "failed to read catalog file")
}
