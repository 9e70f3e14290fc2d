// Package ssml builds and checks Speech Synthesis Markup documents for the
// Edge voices. Builders accept any input; problems are reported by Validate.
package ssml

import (
	"strings"
)

const (
	// Version is the schema version declared on every <speak> root.
	Version = "1.0"
	// Namespace is the synthesis markup namespace declared on every <speak> root.
	Namespace = "http://www.w3.org/2001/10/synthesis"
	// DefaultLanguage is used when a voice name does not carry a locale.
	DefaultLanguage = "en-US"
)

// Prosody holds the optional prosody attributes. Empty fields are not emitted.
type Prosody struct {
	Rate   string
	Pitch  string
	Volume string
}

// Builder accumulates markup fragments for one voice. Each add method appends
// exactly one fragment and returns the builder for chaining.
type Builder struct {
	voice     string
	lang      string
	fragments []string
}

// NewBuilder returns a builder whose language is derived from the voice name
// ("en-US-AriaNeural" -> "en-US").
func NewBuilder(voice string) *Builder {
	return NewBuilderWithLanguage(voice, "")
}

// NewBuilderWithLanguage returns a builder with an explicit language tag. An
// empty lang falls back to the tag derived from the voice name.
func NewBuilderWithLanguage(voice, lang string) *Builder {
	if lang == "" {
		lang = LanguageFromVoice(voice)
	}
	return &Builder{voice: voice, lang: lang}
}

// LanguageFromVoice returns the first two dash-separated components of a voice
// name, or DefaultLanguage when there are fewer than two.
func LanguageFromVoice(voice string) string {
	parts := strings.Split(voice, "-")
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return DefaultLanguage
}

// Voice returns the target voice name.
func (b *Builder) Voice() string { return b.voice }

// Language returns the xml:lang value the document will declare.
func (b *Builder) Language() string { return b.lang }

// Fragments returns a copy of the fragments added so far, in order.
func (b *Builder) Fragments() []string {
	out := make([]string, len(b.fragments))
	copy(out, b.fragments)
	return out
}

// Text appends plain text verbatim.
func (b *Builder) Text(text string) *Builder {
	return b.add(text)
}

// Prosody appends text wrapped in a <prosody> element.
func (b *Builder) Prosody(text string, p Prosody) *Builder {
	a := attrs{{"rate", p.Rate}, {"pitch", p.Pitch}, {"volume", p.Volume}}
	return b.add("<prosody" + a.String() + ">" + text + "</prosody>")
}

// Emphasis appends text wrapped in an <emphasis> element with the given level.
func (b *Builder) Emphasis(text, level string) *Builder {
	return b.add(`<emphasis level="` + level + `">` + text + "</emphasis>")
}

// Break appends a self-closing <break> with the given duration ("1s", "500ms").
func (b *Builder) Break(time string) *Builder {
	return b.add(`<break time="` + time + `"/>`)
}

// SayAs appends a <say-as> element. format is omitted when empty.
func (b *Builder) SayAs(text, interpretAs, format string) *Builder {
	a := attrs{{"interpret-as", interpretAs}, {"format", format}}
	return b.add("<say-as" + a.String() + ">" + text + "</say-as>")
}

// Phoneme appends a <phoneme> element with an explicit pronunciation.
func (b *Builder) Phoneme(text, alphabet, ph string) *Builder {
	return b.add(`<phoneme alphabet="` + alphabet + `" ph="` + ph + `">` + text + "</phoneme>")
}

// Sub appends a <sub> element that is spoken as alias.
func (b *Builder) Sub(text, alias string) *Builder {
	return b.add(`<sub alias="` + alias + `">` + text + "</sub>")
}

// Build renders the document and resets the builder's fragments. The voice
// and language are kept so the builder can be reused for a new document.
func (b *Builder) Build() string {
	content := strings.Join(b.fragments, "")
	b.fragments = nil

	var sb strings.Builder
	sb.WriteString(`<speak version="` + Version + `" xmlns="` + Namespace + `" xml:lang="` + b.lang + `">`)
	sb.WriteString("\n    <voice name=\"" + b.voice + "\">\n        ")
	sb.WriteString(content)
	sb.WriteString("\n    </voice>\n</speak>")
	return sb.String()
}

func (b *Builder) add(fragment string) *Builder {
	b.fragments = append(b.fragments, fragment)
	return b
}

type attr struct {
	name  string
	value string
}

// attrs renders in declaration order and skips empty values.
type attrs []attr

func (a attrs) String() string {
	var sb strings.Builder
	for _, kv := range a {
		if kv.value == "" {
			continue
		}
		sb.WriteString(" " + kv.name + `="` + kv.value + `"`)
	}
	return sb.String()
}

// ProsodyDocument renders a single-fragment document with prosody controls.
func ProsodyDocument(text, voice string, p Prosody) string {
	return NewBuilder(voice).Prosody(text, p).Build()
}

// EmphasisDocument renders a single-fragment document with emphasis.
func EmphasisDocument(text, voice, level string) string {
	return NewBuilder(voice).Emphasis(text, level).Build()
}

// BreakDocument renders parts separated by breaks of the given duration.
func BreakDocument(parts []string, voice, time string) string {
	b := NewBuilder(voice)
	for i, part := range parts {
		if i > 0 {
			b.Break(time)
		}
		b.Text(part)
	}
	return b.Build()
}
