package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Preferences is the optional TOML file users keep next to their library.
// Anything set here overrides the environment.
//
//	fetch_mode = "synced_with_fallback"
//	sources = ["musixmatch-via-spotify", "lrclib", "genius"]
//
//	[providers.genius]
//	threshold = 65
//	tags = ["title", "artist"]
type Preferences struct {
	FetchMode       string                         `toml:"fetch_mode"`
	Sources         []string                       `toml:"sources"`
	MusicDirectory  string                         `toml:"music_directory"`
	OutputDirectory string                         `toml:"output_directory"`
	Providers       map[string]ProviderPreferences `toml:"providers"`
}

type ProviderPreferences struct {
	Threshold float64  `toml:"threshold"`
	Tags      []string `toml:"tags"`
}

// LoadPreferences decodes a preferences file, rejecting unknown keys and sources
func LoadPreferences(path string) (Preferences, error) {
	var p Preferences
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return p, fmt.Errorf("read preferences %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return p, fmt.Errorf("unknown preference keys in %s: %s", path, strings.Join(keys, ", "))
	}
	for name := range p.Providers {
		if !isKnownSource(name) {
			return p, fmt.Errorf("preferences for unknown source %q in %s", name, path)
		}
	}
	return p, nil
}

// Apply overlays the preferences onto the configuration
func (c *Config) Apply(p Preferences) {
	if p.FetchMode != "" {
		c.Configuration.FetchMode = p.FetchMode
	}
	if len(p.Sources) > 0 {
		c.Configuration.Sources = p.Sources
	}
	if p.MusicDirectory != "" {
		c.Configuration.MusicDirectory = p.MusicDirectory
	}
	if p.OutputDirectory != "" {
		c.Configuration.OutputDirectory = p.OutputDirectory
	}
	for name, pp := range p.Providers {
		c.setProvider(name, ProviderSettings{Threshold: pp.Threshold, Tags: pp.Tags})
	}
}
