package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/nupi-ai/plugin-tts-remote-edge/internal/ssml"
)

const (
	// DefaultListenAddr is used when the adapter runner does not inject an explicit address.
	DefaultListenAddr     = "127.0.0.1:50051"
	DefaultVoice          = "en-US-AriaNeural"
	DefaultLogLevel       = "info"
	DefaultLanguage       = "client"
	DefaultOutputFormat   = "mp3"
	DefaultOutputDir      = "output"
	DefaultTimeoutSeconds = 30
	DefaultBatchSize      = 5
	DefaultMaxConcurrent  = 3
	DefaultCacheMaxSizeMB = 100
	DefaultEdgeTTSCommand = "edge-tts"
	DefaultPythonCommand  = "python"
)

// Config captures bootstrap configuration extracted from environment variables,
// an optional config file, or the injected JSON payload (`NUPI_ADAPTER_CONFIG`).
type Config struct {
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
	LogLevel   string `json:"log_level" yaml:"log_level"`

	// Language is "client" (take nupi.lang.iso1 from request metadata),
	// "auto" (always use DefaultVoice) or a language/locale code.
	Language      string `json:"language" yaml:"language"`
	DefaultVoice  string `json:"default_voice" yaml:"default_voice"`
	FallbackVoice string `json:"fallback_voice,omitempty" yaml:"fallback_voice,omitempty"`

	OutputFormat    string `json:"output_format" yaml:"output_format"`
	OutputDirectory string `json:"output_directory" yaml:"output_directory"`
	CacheVoices     bool   `json:"cache_voices" yaml:"cache_voices"`
	Timeout         int    `json:"timeout" yaml:"timeout"` // seconds

	// Prosody applied to plain text requests. Empty values are omitted.
	Rate   string `json:"rate,omitempty" yaml:"rate,omitempty"`
	Pitch  string `json:"pitch,omitempty" yaml:"pitch,omitempty"`
	Volume string `json:"volume,omitempty" yaml:"volume,omitempty"`

	SSML     bool   `json:"ssml" yaml:"ssml"`
	Template string `json:"template,omitempty" yaml:"template,omitempty"`

	BatchSize     int `json:"batch_size" yaml:"batch_size"`
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	VoicesURL          string `json:"voices_url,omitempty" yaml:"voices_url,omitempty"`
	EdgeTTSCommand     string `json:"edge_tts_command" yaml:"edge_tts_command"`
	PythonCommand      string `json:"python_command" yaml:"python_command"`
	UseStubSynthesizer bool   `json:"use_stub_synthesizer" yaml:"use_stub_synthesizer"`
	ValidateVoices     bool   `json:"validate_voices" yaml:"validate_voices"`

	CacheDir       string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`
	CacheMaxSizeMB int    `json:"cache_max_size_mb" yaml:"cache_max_size_mb"`
}

// Default returns the configuration used before presets, files or
// environment overrides are applied.
func Default() Config {
	return Config{
		ListenAddr:      DefaultListenAddr,
		LogLevel:        DefaultLogLevel,
		Language:        DefaultLanguage,
		DefaultVoice:    DefaultVoice,
		OutputFormat:    DefaultOutputFormat,
		OutputDirectory: DefaultOutputDir,
		CacheVoices:     true,
		Timeout:         DefaultTimeoutSeconds,
		BatchSize:       DefaultBatchSize,
		MaxConcurrent:   DefaultMaxConcurrent,
		EdgeTTSCommand:  DefaultEdgeTTSCommand,
		PythonCommand:   DefaultPythonCommand,
		CacheMaxSizeMB:  DefaultCacheMaxSizeMB,
	}
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// Prosody returns the configured prosody defaults.
func (c Config) Prosody() ssml.Prosody {
	return ssml.Prosody{Rate: c.Rate, Pitch: c.Pitch, Volume: c.Volume}
}

// Validate applies defaults and raises an error when fields are invalid.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("config: listen address is required")
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Language = normalizeLanguage(c.Language)
	c.DefaultVoice = strings.TrimSpace(c.DefaultVoice)
	if c.DefaultVoice == "" {
		return fmt.Errorf("config: default_voice is required")
	}
	c.FallbackVoice = strings.TrimSpace(c.FallbackVoice)
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutputFormat
	}
	if c.OutputDirectory == "" {
		c.OutputDirectory = DefaultOutputDir
	}
	if c.EdgeTTSCommand == "" {
		c.EdgeTTSCommand = DefaultEdgeTTSCommand
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("config: timeout must be positive, got %d", c.Timeout)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: batch_size must be positive, got %d", c.BatchSize)
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("config: max_concurrent must be positive, got %d", c.MaxConcurrent)
	}
	if c.CacheMaxSizeMB < 0 {
		return fmt.Errorf("config: cache_max_size_mb must not be negative, got %d", c.CacheMaxSizeMB)
	}

	if c.Template != "" {
		if _, err := ssml.Render(c.Template, "check", c.DefaultVoice); err != nil {
			return fmt.Errorf("config: template: %w", err)
		}
	}
	if problems := ssml.ValidateProsody(c.Prosody()); len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// normalizeLanguage lower-cases the "client" and "auto" mode keywords and
// keeps any other code as written, since voice locales are case-sensitive.
func normalizeLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	switch {
	case lang == "":
		return DefaultLanguage
	case strings.EqualFold(lang, "client"):
		return "client"
	case strings.EqualFold(lang, "auto"):
		return "auto"
	}
	return lang
}
