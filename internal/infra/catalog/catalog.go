// Package catalog loads a YAML track catalog that stands in for the
// external track-search service.
package catalog

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/osa030/focusbox/internal/domain/track"
)

// Entry is one catalog track.
type Entry struct {
	ID          string   `yaml:"id" validate:"required"`
	Title       string   `yaml:"title" validate:"required"`
	Artist      string   `yaml:"artist" default:"Unknown artist"`
	DurationSec int      `yaml:"duration_sec" validate:"gte=0"`
	ArtworkURL  string   `yaml:"artwork_url" validate:"omitempty,url"`
	Embeddable  *bool    `yaml:"embeddable"` // Unset means embeddable
	Tags        []string `yaml:"tags"`
}

// Candidate converts the entry into a search candidate.
func (e Entry) Candidate() track.Candidate {
	return track.Candidate{
		ID:          e.ID,
		Title:       e.Title,
		Artist:      e.Artist,
		DurationSec: e.DurationSec,
		ArtworkURL:  e.ArtworkURL,
		Embeddable:  e.Embeddable == nil || *e.Embeddable,
	}
}

func (e Entry) matches(words []string) bool {
	if len(words) == 0 {
		return true
	}
	haystack := strings.ToLower(e.Title + " " + strings.Join(e.Tags, " "))
	return lo.EveryBy(words, func(w string) bool {
		return strings.Contains(haystack, w)
	})
}

// Catalog is an in-memory track catalog.
type Catalog struct {
	Tracks []Entry `yaml:"tracks" validate:"dive"`

	byID map[string]Entry
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog file")
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return c, nil
}

// Parse parses and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog")
	}
	if err := defaults.Set(&c); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(&c); err != nil {
		return nil, errors.Wrap(err, "catalog validation failed")
	}

	c.byID = make(map[string]Entry, len(c.Tracks))
	for _, e := range c.Tracks {
		if _, dup := c.byID[e.ID]; dup {
			return nil, errors.Newf("duplicate track id: %s", e.ID)
		}
		c.byID[e.ID] = e
	}
	return &c, nil
}

// Search returns up to limit candidates whose title or tags contain every
// word of query, in catalog order. An empty query matches everything;
// limit <= 0 means no limit.
func (c *Catalog) Search(query string, limit int) []track.Candidate {
	words := strings.Fields(strings.ToLower(query))
	matched := lo.Filter(c.Tracks, func(e Entry, _ int) bool {
		return e.matches(words)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return lo.Map(matched, func(e Entry, _ int) track.Candidate {
		return e.Candidate()
	})
}

// Lookup returns the candidate with the given id.
func (c *Catalog) Lookup(id string) (track.Candidate, bool) {
	e, ok := c.byID[id]
	if !ok {
		return track.Candidate{}, false
	}
	return e.Candidate(), true
}

// Len returns the number of tracks.
func (c *Catalog) Len() int {
	return len(c.Tracks)
}
