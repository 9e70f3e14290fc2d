package ssml

import (
	"fmt"
	"strings"
)

type template struct {
	name  string
	apply func(b *Builder, text string)
}

var templates = []template{
	{"slow_speech", func(b *Builder, text string) { b.Prosody(text, Prosody{Rate: "slow"}) }},
	{"fast_speech", func(b *Builder, text string) { b.Prosody(text, Prosody{Rate: "fast"}) }},
	{"whisper", func(b *Builder, text string) { b.Prosody(text, Prosody{Rate: "slow", Volume: "x-soft"}) }},
	{"excited", func(b *Builder, text string) { b.Prosody(text, Prosody{Rate: "fast", Pitch: "high", Volume: "loud"}) }},
	{"calm", func(b *Builder, text string) { b.Prosody(text, Prosody{Rate: "slow", Pitch: "low", Volume: "soft"}) }},
	{"emphasis_strong", func(b *Builder, text string) { b.Emphasis(text, "strong") }},
	{"with_pauses", withPauses},
}

// withPauses puts a one second break after the first sentence.
func withPauses(b *Builder, text string) {
	parts := strings.Split(text, ".")
	if len(parts) < 2 {
		b.Text(text)
		return
	}
	b.Text(parts[0]).Break("1s").Text(strings.Join(parts[1:], "."))
}

// UnknownTemplateError is returned for a template name outside the catalog.
type UnknownTemplateError struct {
	Name      string
	Available []string
}

func (e *UnknownTemplateError) Error() string {
	return fmt.Sprintf("ssml: unknown template %q, available: %s", e.Name, strings.Join(e.Available, ", "))
}

// Templates lists the template names in catalog order.
func Templates() []string {
	names := make([]string, len(templates))
	for i, t := range templates {
		names[i] = t.name
	}
	return names
}

// Apply runs the named template on b.
func Apply(b *Builder, name, text string) error {
	for _, t := range templates {
		if t.name == name {
			t.apply(b, text)
			return nil
		}
	}
	return &UnknownTemplateError{Name: name, Available: Templates()}
}

// Render builds a complete document for voice from the named template.
func Render(name, text, voice string) (string, error) {
	b := NewBuilder(voice)
	if err := Apply(b, name, text); err != nil {
		return "", err
	}
	return b.Build(), nil
}
