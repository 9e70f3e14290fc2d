package config

import (
	"fmt"
	"strings"
)

// preset adjusts a default configuration.
type preset struct {
	name  string
	apply func(*Config)
}

// Percentage pitch and volume values are rejected by the markup validator, so
// the voice-style presets use the named levels instead.
var presets = []preset{
	{"default", func(*Config) {}},
	{"fast", func(c *Config) {
		c.Rate = "+20%"
		c.MaxConcurrent = 5
		c.BatchSize = 10
	}},
	{"slow", func(c *Config) {
		c.Rate = "-20%"
		c.MaxConcurrent = 2
		c.BatchSize = 3
	}},
	{"high_quality", func(c *Config) {
		c.OutputFormat = "wav"
		c.CacheVoices = true
	}},
	{"batch_processing", func(c *Config) {
		c.MaxConcurrent = 8
		c.BatchSize = 20
		c.CacheVoices = true
	}},
	{"whisper", func(c *Config) {
		c.Rate = "-10%"
		c.Pitch = "low"
		c.Volume = "x-soft"
	}},
	{"excited", func(c *Config) {
		c.Rate = "+15%"
		c.Pitch = "high"
		c.Volume = "loud"
	}},
}

// PresetNames lists the available presets in a stable order.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.name
	}
	return names
}

// Preset returns the default configuration adjusted by the named preset.
func Preset(name string) (Config, error) {
	cfg := Default()
	if err := applyPreset(name, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyPreset(name string, cfg *Config) error {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range presets {
		if p.name == name {
			p.apply(cfg)
			return nil
		}
	}
	return fmt.Errorf("config: unknown preset %q, available: %s", name, strings.Join(PresetNames(), ", "))
}
