package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/nupi-ai/plugin-tts-remote-edge/internal/cache"
	"github.com/nupi-ai/plugin-tts-remote-edge/internal/edgetts"
	"github.com/nupi-ai/plugin-tts-remote-edge/internal/ssml"
	"github.com/nupi-ai/plugin-tts-remote-edge/internal/voice"
)

type call struct {
	text  string
	voice string
}

// fakeSynth returns "voice|text" as audio. Voices in failVoices and texts in
// failTexts fail with a backend error.
type fakeSynth struct {
	mu         sync.Mutex
	calls      []call
	failVoices map[string]bool
	failTexts  map[string]bool
}

func (f *fakeSynth) Synthesize(_ context.Context, text, voiceName string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{text, voiceName})
	f.mu.Unlock()
	if f.failVoices[voiceName] || f.failTexts[text] {
		return nil, &edgetts.SynthesisError{Backend: "fake", Voice: voiceName, Detail: "rejected " + text}
	}
	return []byte(voiceName + "|" + text), nil
}

func (f *fakeSynth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type staticSource struct{ records []voice.Record }

func (s staticSource) ListVoices(context.Context) ([]voice.Record, error) {
	return s.records, nil
}

func testCatalog() *voice.Catalog {
	return voice.NewCatalog(staticSource{records: []voice.Record{
		{ShortName: "en-US-AriaNeural", FriendlyName: "Aria", Locale: "en-US", Gender: "Female"},
		{ShortName: "de-DE-KatjaNeural", FriendlyName: "Katja", Locale: "de-DE", Gender: "Female"},
	}}, true, nil)
}

func TestSynthesizePlainText(t *testing.T) {
	synth := &fakeSynth{}
	o := New(synth, nil, Options{})

	data, err := o.Synthesize(context.Background(), "hello", "en-US-AriaNeural", false)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(data) != "en-US-AriaNeural|hello" {
		t.Errorf("data = %q", data)
	}
}

func TestSynthesizeMarkupValidatedFirst(t *testing.T) {
	synth := &fakeSynth{}
	o := New(synth, nil, Options{})

	_, err := o.Synthesize(context.Background(), "<voice>no root</voice>", "en-US-AriaNeural", true)
	var verr *ssml.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ssml.ValidationError", err)
	}
	if synth.callCount() != 0 {
		t.Errorf("backend called %d times for invalid markup", synth.callCount())
	}
}

func TestSynthesizeSSMLAndTemplate(t *testing.T) {
	synth := &fakeSynth{}
	o := New(synth, nil, Options{})
	ctx := context.Background()

	doc := ssml.NewBuilder("en-US-AriaNeural").Text("Hi").Break("500ms").Build()
	if _, err := o.SynthesizeSSML(ctx, doc, "en-US-AriaNeural"); err != nil {
		t.Fatalf("SynthesizeSSML: %v", err)
	}

	data, err := o.SynthesizeTemplate(ctx, "whisper", "secret", "en-US-AriaNeural")
	if err != nil {
		t.Fatalf("SynthesizeTemplate: %v", err)
	}
	if !strings.Contains(string(data), `volume="x-soft"`) {
		t.Errorf("template document not passed to backend: %q", data)
	}

	_, err = o.SynthesizeTemplate(ctx, "nope", "x", "en-US-AriaNeural")
	var uerr *ssml.UnknownTemplateError
	if !errors.As(err, &uerr) {
		t.Errorf("error = %v, want *ssml.UnknownTemplateError", err)
	}
}

func TestSynthesizeBackendErrorPropagates(t *testing.T) {
	synth := &fakeSynth{failVoices: map[string]bool{"bad": true}}
	o := New(synth, nil, Options{})

	_, err := o.Synthesize(context.Background(), "hello", "bad", false)
	var serr *edgetts.SynthesisError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *edgetts.SynthesisError", err)
	}
	if serr.Detail != "rejected hello" {
		t.Errorf("Detail = %q", serr.Detail)
	}
}

func TestFallbackUsesAlternate(t *testing.T) {
	synth := &fakeSynth{failVoices: map[string]bool{"primary": true}}
	o := New(synth, nil, Options{})

	data, err := o.SynthesizeWithFallback(context.Background(), "hello", "primary", "alternate")
	if err != nil {
		t.Fatalf("SynthesizeWithFallback: %v", err)
	}
	if string(data) != "alternate|hello" {
		t.Errorf("data = %q", data)
	}
	if synth.callCount() != 2 {
		t.Errorf("calls = %d, want 2", synth.callCount())
	}
}

func TestFallbackWithoutAlternateReturnsPrimaryError(t *testing.T) {
	synth := &fakeSynth{failVoices: map[string]bool{"primary": true}}
	o := New(synth, nil, Options{})

	_, err := o.SynthesizeWithFallback(context.Background(), "hello", "primary", "")
	var serr *edgetts.SynthesisError
	if !errors.As(err, &serr) || serr.Voice != "primary" {
		t.Fatalf("error = %v, want primary failure", err)
	}
	if synth.callCount() != 1 {
		t.Errorf("calls = %d, want 1", synth.callCount())
	}
}

func TestFallbackBothFailReturnsAlternateError(t *testing.T) {
	synth := &fakeSynth{failVoices: map[string]bool{"primary": true, "alternate": true}}
	o := New(synth, nil, Options{})

	_, err := o.SynthesizeWithFallback(context.Background(), "hello", "primary", "alternate")
	var serr *edgetts.SynthesisError
	if !errors.As(err, &serr) || serr.Voice != "alternate" {
		t.Fatalf("error = %v, want alternate failure", err)
	}
	if synth.callCount() != 2 {
		t.Errorf("calls = %d, want exactly 2", synth.callCount())
	}
}

func TestProcessRendersPayloadForAlternate(t *testing.T) {
	synth := &fakeSynth{failVoices: map[string]bool{"en-US-AriaNeural": true}}
	o := New(synth, nil, Options{})

	render := func(v string) (string, bool, error) {
		doc, err := ssml.Render("calm", "hello", v)
		return doc, true, err
	}
	primary, _, _ := render("en-US-AriaNeural")

	res, err := o.Process(context.Background(), Request{
		Text:      primary,
		Voice:     "en-US-AriaNeural",
		Alternate: "pl-PL-ZofiaNeural",
		Markup:    true,
		Render:    render,
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Voice != "pl-PL-ZofiaNeural" {
		t.Errorf("Voice = %q, want alternate", res.Voice)
	}
	synth.mu.Lock()
	second := synth.calls[1]
	synth.mu.Unlock()
	if strings.Contains(second.text, "en-US-AriaNeural") {
		t.Errorf("alternate payload still names the primary voice: %q", second.text)
	}
	if !strings.Contains(second.text, `<voice name="pl-PL-ZofiaNeural">`) {
		t.Errorf("alternate payload = %q, want alternate voice element", second.text)
	}
}

func TestProcessRenderFailureStopsFallback(t *testing.T) {
	synth := &fakeSynth{failVoices: map[string]bool{"a": true}}
	o := New(synth, nil, Options{})

	_, err := o.Process(context.Background(), Request{
		Text: "x", Voice: "a", Alternate: "b",
		Render: func(string) (string, bool, error) { return "", false, errors.New("bad template") },
	})
	if err == nil || !strings.Contains(err.Error(), "bad template") {
		t.Fatalf("error = %v, want render failure", err)
	}
	if synth.callCount() != 1 {
		t.Errorf("calls = %d, want 1", synth.callCount())
	}
}

func TestProcessSkipsFallbackForInvalidMarkup(t *testing.T) {
	synth := &fakeSynth{}
	o := New(synth, nil, Options{})

	_, err := o.Process(context.Background(), Request{
		Text: "plain", Voice: "a", Alternate: "b", Markup: true,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if synth.callCount() != 0 {
		t.Errorf("calls = %d, want 0", synth.callCount())
	}
}

func TestProcessReportsVoiceUsed(t *testing.T) {
	synth := &fakeSynth{failVoices: map[string]bool{"a": true}}
	o := New(synth, nil, Options{})

	res, err := o.Process(context.Background(), Request{Text: "x", Voice: "a", Alternate: "b"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Voice != "b" {
		t.Errorf("Voice = %q, want b", res.Voice)
	}
}

func TestValidateVoices(t *testing.T) {
	synth := &fakeSynth{}
	o := New(synth, nil, Options{Catalog: testCatalog(), ValidateVoices: true})
	ctx := context.Background()

	if _, err := o.Synthesize(ctx, "hi", "en-US-AriaNeural", false); err != nil {
		t.Fatalf("known voice: %v", err)
	}
	_, err := o.Synthesize(ctx, "hi", "xx-XX-Nobody", false)
	if !errors.Is(err, ErrUnknownVoice) {
		t.Fatalf("error = %v, want ErrUnknownVoice", err)
	}
	if synth.callCount() != 1 {
		t.Errorf("calls = %d, want 1", synth.callCount())
	}
}

func TestValidateVoicesWithoutCatalog(t *testing.T) {
	o := New(&fakeSynth{}, nil, Options{ValidateVoices: true})
	if _, err := o.Synthesize(context.Background(), "hi", "v", false); !errors.Is(err, ErrNoCatalog) {
		t.Fatalf("error = %v, want ErrNoCatalog", err)
	}
}

func TestAudioCache(t *testing.T) {
	c, err := cache.New(t.TempDir(), 1<<20, nil)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	synth := &fakeSynth{}
	o := New(synth, nil, Options{Cache: c})
	ctx := context.Background()

	first, err := o.Process(ctx, Request{Text: "hello", Voice: "v"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := o.Process(ctx, Request{Text: "hello", Voice: "v"})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.Cached || !second.Cached {
		t.Errorf("Cached = %v/%v, want false/true", first.Cached, second.Cached)
	}
	if string(second.Audio) != string(first.Audio) {
		t.Errorf("cached audio differs")
	}
	if synth.callCount() != 1 {
		t.Errorf("calls = %d, want 1", synth.callCount())
	}
}

func TestVoicePassthroughs(t *testing.T) {
	o := New(&fakeSynth{}, nil, Options{Catalog: testCatalog()})
	ctx := context.Background()

	all, err := o.Voices(ctx, false)
	if err != nil || len(all) != 2 {
		t.Fatalf("Voices = %v, %v", all, err)
	}
	de, err := o.VoicesByLanguage(ctx, "de")
	if err != nil || len(de) != 1 || de[0].Name != "de-DE-KatjaNeural" {
		t.Fatalf("VoicesByLanguage(de) = %v, %v", de, err)
	}
	name, err := o.ResolveVoice(ctx, "fr", "fallback")
	if err != nil || name != "fallback" {
		t.Errorf("ResolveVoice(fr) = %q, %v", name, err)
	}
	o.ClearVoiceCache()
}

func TestVoicesWithoutCatalog(t *testing.T) {
	o := New(&fakeSynth{}, nil, Options{})
	if _, err := o.Voices(context.Background(), false); !errors.Is(err, ErrNoCatalog) {
		t.Errorf("error = %v, want ErrNoCatalog", err)
	}
	name, err := o.ResolveVoice(context.Background(), "en", "fallback")
	if err != nil || name != "fallback" {
		t.Errorf("ResolveVoice = %q, %v", name, err)
	}
}

func TestNewPanicsOnNilSynthesizer(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	New(nil, nil, Options{})
}

func ExampleFilenameFor() {
	fmt.Println(FilenameFor("chapter_{}.mp3", 3))
	// Output: chapter_3.mp3
}
