// Package config handles configuration loading and shared data structures.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Load when the file leaves a value empty.
const (
	DefaultOutput        = "maps"
	DefaultZone          = 23
	DefaultPermanenceKey = "TEMPO_PERMANENCIA"
)

// Config represents the root configuration file structure.
type Config struct {
	Colors        map[string]string `yaml:"colors,omitempty" json:"-"`
	Output        string            `yaml:"output,omitempty" json:"-"`
	PermanenceKey string            `yaml:"permanence_key,omitempty" json:"-"`
	DefaultColor  string            `yaml:"default_color,omitempty" json:"-"`
	Feeds         []Feed            `yaml:"feeds" json:"feeds"`
	Zone          int               `yaml:"zone,omitempty" json:"zone"`
}

// Feed represents a single WFS feed of parking segments.
type Feed struct {
	Index *int `yaml:"index,omitempty" json:"index,omitempty"`

	Name          string   `yaml:"name" json:"name"`
	Title         string   `yaml:"title,omitempty" json:"title,omitempty"`
	URL           string   `yaml:"url" json:"-"` // http(s) URL or local file path
	PermanenceKey string   `yaml:"permanence_key,omitempty" json:"-"`
	Aliases       []string `yaml:"aliases,omitempty" json:"-"`
	Zone          int      `yaml:"zone,omitempty" json:"zone"`
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

// Parse decodes YAML configuration, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Output == "" {
		c.Output = DefaultOutput
	}
	if c.Zone == 0 {
		c.Zone = DefaultZone
	}
	if c.PermanenceKey == "" {
		c.PermanenceKey = DefaultPermanenceKey
	}

	for i := range c.Feeds {
		feed := &c.Feeds[i]
		if feed.Zone == 0 {
			feed.Zone = c.Zone
		}
		if feed.PermanenceKey == "" {
			feed.PermanenceKey = c.PermanenceKey
		}
	}
}

// Validate checks feed names and zones.
func (c *Config) Validate() error {
	seen := make(map[string]bool)

	for i, feed := range c.Feeds {
		if feed.Name == "" {
			return fmt.Errorf("feed #%d: name is required", i)
		}
		if feed.URL == "" {
			return fmt.Errorf("feed %s: url is required", feed.Name)
		}
		if feed.Zone < 1 || feed.Zone > 60 {
			return fmt.Errorf("feed %s: zone %d outside 1-60", feed.Name, feed.Zone)
		}

		for _, name := range append([]string{feed.Name}, feed.Aliases...) {
			if seen[name] {
				return fmt.Errorf("feed %s: duplicate name or alias %q", feed.Name, name)
			}
			seen[name] = true
		}
	}

	return nil
}

// Feed returns the feed named or aliased name.
func (c *Config) Feed(name string) (Feed, bool) {
	for _, feed := range c.Feeds {
		if feed.Name == name {
			return feed, true
		}
		for _, alias := range feed.Aliases {
			if alias == name {
				return feed, true
			}
		}
	}
	return Feed{}, false
}
