package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Loader loads configuration from environment variables. Tests can override
// Lookup to inject deterministic maps.
type Loader struct {
	Lookup func(string) (string, bool)
}

// Load builds the adapter configuration and validates it. Sources are applied
// in order: defaults, NUPI_TTS_PRESET, NUPI_ADAPTER_CONFIG_FILE,
// NUPI_ADAPTER_CONFIG, then single-value environment overrides.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}

	cfg := Default()

	if name, ok := l.lookupTrimmed("NUPI_TTS_PRESET"); ok {
		if err := applyPreset(name, &cfg); err != nil {
			return Config{}, err
		}
	}

	if path, ok := l.lookupTrimmed("NUPI_ADAPTER_CONFIG_FILE"); ok {
		if err := mergeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if raw, ok := l.Lookup("NUPI_ADAPTER_CONFIG"); ok && strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode NUPI_ADAPTER_CONFIG: %w", err)
		}
	}

	overrideString(l.Lookup, "NUPI_ADAPTER_LISTEN_ADDR", &cfg.ListenAddr)
	overrideString(l.Lookup, "NUPI_LOG_LEVEL", &cfg.LogLevel)
	if err := overrideBool(l.Lookup, "NUPI_ADAPTER_USE_STUB_SYNTHESIZER", &cfg.UseStubSynthesizer); err != nil {
		return Config{}, err
	}

	// Default cache directory
	if cfg.CacheDir == "" {
		if dataDir, ok := l.lookupTrimmed("NUPI_ADAPTER_DATA_DIR"); ok {
			cfg.CacheDir = filepath.Join(dataDir, "cache")
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (l Loader) lookupTrimmed(key string) (string, bool) {
	value, ok := l.Lookup(key)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if lookup == nil || target == nil {
		return
	}
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = b
	return nil
}
