// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Log       LogConfig               `yaml:"log"`
	Session   SessionConfig           `yaml:"session"`
	Player    PlayerConfig            `yaml:"player"`
	Playback  PlaybackConfig          `yaml:"playback"`
	Sources   SourcesConfig           `yaml:"sources"`
	Filters   map[string]FilterConfig `yaml:"filters"`
	Simulator SimulatorConfig         `yaml:"simulator"`
}

// LogConfig represents logger configuration.
type LogConfig struct {
	Output string `yaml:"output" default:"stdout"`
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	File   string `yaml:"file"`
}

// SessionConfig represents focus session configuration.
type SessionConfig struct {
	DefaultMood string       `yaml:"default_mood" default:"Deep Work"`
	Moods       []MoodConfig `yaml:"moods" validate:"dive"`
	Timer       TimerConfig  `yaml:"timer"`
}

// MoodConfig represents a selectable mood and the session length it implies.
type MoodConfig struct {
	Name    string `yaml:"name" validate:"required"`
	Minutes int    `yaml:"minutes" validate:"gte=1,lte=480"`
	Query   string `yaml:"query"` // Search query; defaults to the lower-cased name
	Break   bool   `yaml:"break"` // Timed as a break instead of a pomodoro
}

// Duration returns the session length.
func (m MoodConfig) Duration() time.Duration {
	return time.Duration(m.Minutes) * time.Minute
}

// SearchQuery returns the query used to fetch candidates.
func (m MoodConfig) SearchQuery() string {
	if m.Query != "" {
		return m.Query
	}
	return strings.ToLower(m.Name)
}

// TimerConfig represents the countdown configuration.
type TimerConfig struct {
	ShortBreakMinutes int `yaml:"short_break_minutes" default:"5" validate:"gte=1"`
	LongBreakMinutes  int `yaml:"long_break_minutes" default:"15" validate:"gte=1"`
	LongBreakEvery    int `yaml:"long_break_every" default:"4" validate:"gte=1"`
}

// PlayerConfig represents embedded player configuration.
type PlayerConfig struct {
	HostID           string `yaml:"host_id" default:"focus-player"`
	BootstrapTrackID string `yaml:"bootstrap_track_id" default:"bootstrap-silence"`
	PollIntervalMs   int    `yaml:"poll_interval_ms" default:"500" validate:"gte=250,lte=500"`
	MountTimeoutMs   int    `yaml:"mount_timeout_ms" default:"10000" validate:"gte=100"`
}

// PlaybackConfig represents queue playback configuration.
type PlaybackConfig struct {
	SupervisionIntervalMs int `yaml:"supervision_interval_ms" default:"1000" validate:"gte=10,lte=10000"`
	MaxSegments           int `yaml:"max_segments" default:"200" validate:"gte=1,lte=10000"`
}

// SourcesConfig represents candidate source configuration.
type SourcesConfig struct {
	CandidateCount int              `yaml:"candidate_count" default:"25" validate:"gte=1"`
	Providers      []ProviderConfig `yaml:"providers" validate:"required,min=1,dive"`

	// Settings shared by every provider of a type, keyed by provider type.
	Defaults map[string]map[string]any `yaml:"defaults"`
}

// ProviderConfig represents a single candidate provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// SimulatorConfig represents the in-process player used by the CLI.
type SimulatorConfig struct {
	Speed            float64 `yaml:"speed" default:"1" validate:"gt=0,lte=1000"`
	BootstrapDelayMs int     `yaml:"bootstrap_delay_ms" default:"200" validate:"gte=0"`
}

// DefaultMoods returns the built-in moods.
func DefaultMoods() []MoodConfig {
	return []MoodConfig{
		{Name: "Deep Work", Minutes: 50, Query: "deep focus"},
		{Name: "Creative Flow", Minutes: 45, Query: "creative flow"},
		{Name: "Light Focus", Minutes: 25, Query: "light focus"},
		{Name: "Break", Minutes: 5, Query: "relaxing break", Break: true},
	}
}

// DefaultFilters enables every built-in filter with its default settings.
func DefaultFilters() map[string]FilterConfig {
	return map[string]FilterConfig{
		"duration_limit_filter":  {Enabled: true},
		"embeddable_filter":      {Enabled: true},
		"duplicate_track_filter": {Enabled: true},
	}
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses YAML configuration, applies environment overrides and defaults, and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if len(cfg.Session.Moods) == 0 {
		cfg.Session.Moods = DefaultMoods()
	}
	if cfg.Filters == nil {
		cfg.Filters = DefaultFilters()
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("FOCUSBOX_CATALOG_PATH"); v != "" {
		for i := range c.Sources.Providers {
			if c.Sources.Providers[i].Type != "catalog" {
				continue
			}
			if c.Sources.Providers[i].Settings == nil {
				c.Sources.Providers[i].Settings = make(map[string]any)
			}
			c.Sources.Providers[i].Settings["path"] = v
		}
	}
	if v := os.Getenv("FOCUSBOX_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("FOCUSBOX_DEFAULT_MOOD"); v != "" {
		c.Session.DefaultMood = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	seen := make(map[string]bool)
	for _, m := range c.Session.Moods {
		key := strings.ToLower(m.Name)
		if seen[key] {
			return errors.Newf("duplicate mood: %s", m.Name)
		}
		seen[key] = true
	}

	if _, ok := c.Mood(c.Session.DefaultMood); !ok {
		return errors.Newf("default_mood (%s) is not a configured mood", c.Session.DefaultMood)
	}

	return nil
}

// Mood looks up a mood by name, case-insensitively.
func (c *Config) Mood(name string) (MoodConfig, bool) {
	for _, m := range c.Session.Moods {
		if strings.EqualFold(m.Name, strings.TrimSpace(name)) {
			return m, true
		}
	}
	return MoodConfig{}, false
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// PollInterval returns the player poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Player.PollIntervalMs) * time.Millisecond
}

// MountTimeout returns how long callers wait for the player to mount.
func (c *Config) MountTimeout() time.Duration {
	return time.Duration(c.Player.MountTimeoutMs) * time.Millisecond
}

// SupervisionInterval returns the session clock check cadence.
func (c *Config) SupervisionInterval() time.Duration {
	return time.Duration(c.Playback.SupervisionIntervalMs) * time.Millisecond
}
