// Package adapterinfo exposes the adapter identity declared in plugin.yaml.
package adapterinfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

const manifestName = "plugin.yaml"

// Metadata captures static identifiers for the adapter.
type Metadata struct {
	Name        string
	BinaryName  string
	Slug        string
	Description string
	GeneratorID string
	Version     string
	// Backend names the speech service the adapter drives.
	Backend string
}

// Info describes the current adapter.
var Info = mustLoadMetadata()

// SynthesisMetadata produces the metadata attached to every emitted audio chunk.
func SynthesisMetadata(voice, format string) map[string]string {
	return map[string]string{
		"generator": Info.GeneratorID,
		"backend":   Info.Backend,
		"voice":     voice,
		"format":    format,
	}
}

// Version returns the adapter semantic version.
func Version() string {
	return Info.Version
}

func mustLoadMetadata() Metadata {
	data, err := loadManifest()
	if err != nil {
		panic(err)
	}
	meta, err := parseManifest(data)
	if err != nil {
		panic(err)
	}
	return meta
}

// loadManifest looks for plugin.yaml next to the binary, in the working
// directory, then at the source root.
func loadManifest() ([]byte, error) {
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if _, file, _, ok := runtime.Caller(0); ok {
		dirs = append(dirs, filepath.Join(filepath.Dir(file), "..", ".."))
	}

	tried := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		path := filepath.Join(filepath.Clean(dir), manifestName)
		if tried[path] {
			continue
		}
		tried[path] = true
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}
	}
	return nil, errors.New("adapterinfo: plugin.yaml not found next to binary or source tree")
}

type manifest struct {
	Metadata struct {
		Name        string `yaml:"name"`
		Slug        string `yaml:"slug"`
		Description string `yaml:"description"`
		Version     string `yaml:"version"`
		Generator   string `yaml:"generator"`
	} `yaml:"metadata"`
	Spec struct {
		Backend    string `yaml:"backend"`
		Entrypoint struct {
			Command string `yaml:"command"`
		} `yaml:"entrypoint"`
	} `yaml:"spec"`
}

func parseManifest(data []byte) (Metadata, error) {
	var doc manifest
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Metadata{}, fmt.Errorf("adapterinfo: decode manifest: %w", err)
	}

	meta := Metadata{
		Name:        strings.TrimSpace(doc.Metadata.Name),
		Slug:        strings.TrimSpace(doc.Metadata.Slug),
		Description: strings.TrimSpace(doc.Metadata.Description),
		Version:     strings.TrimSpace(doc.Metadata.Version),
		GeneratorID: strings.TrimSpace(doc.Metadata.Generator),
		Backend:     strings.TrimSpace(doc.Spec.Backend),
		BinaryName:  strings.TrimPrefix(strings.TrimSpace(doc.Spec.Entrypoint.Command), "./"),
	}

	switch {
	case meta.Version == "":
		return Metadata{}, fmt.Errorf("adapterinfo: metadata.version missing in manifest")
	case meta.Slug == "":
		return Metadata{}, fmt.Errorf("adapterinfo: metadata.slug missing in manifest")
	}

	fill := func(field *string, fallback string) {
		if *field == "" {
			*field = fallback
		}
	}
	fill(&meta.Name, meta.Slug)
	fill(&meta.Description, meta.Name)
	fill(&meta.BinaryName, meta.Slug)
	fill(&meta.GeneratorID, meta.Slug)
	fill(&meta.Backend, "edge-tts")
	return meta, nil
}
