package ssml

import (
	"errors"
	"strings"
	"testing"
)

func TestTemplatesOrder(t *testing.T) {
	want := []string{"slow_speech", "fast_speech", "whisper", "excited", "calm", "emphasis_strong", "with_pauses"}
	got := Templates()
	if len(got) != len(want) {
		t.Fatalf("Templates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Templates()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRenderProsodyTemplates(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"slow_speech", `<prosody rate="slow">hi</prosody>`},
		{"fast_speech", `<prosody rate="fast">hi</prosody>`},
		{"whisper", `<prosody rate="slow" volume="x-soft">hi</prosody>`},
		{"excited", `<prosody rate="fast" pitch="high" volume="loud">hi</prosody>`},
		{"calm", `<prosody rate="slow" pitch="low" volume="soft">hi</prosody>`},
		{"emphasis_strong", `<emphasis level="strong">hi</emphasis>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Render(tt.name, "hi", "en-US-AriaNeural")
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if !strings.Contains(doc, tt.want) {
				t.Errorf("document %q does not contain %q", doc, tt.want)
			}
			if errs := Validate(doc); len(errs) != 0 {
				t.Errorf("Validate() = %v, want none", errs)
			}
		})
	}
}

func TestWithPausesSplitsFirstSentence(t *testing.T) {
	b := NewBuilder("en-US-AriaNeural")
	if err := Apply(b, "with_pauses", "A. B. C"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	frags := b.Fragments()
	if len(frags) != 3 {
		t.Fatalf("fragments = %q, want 3", frags)
	}
	if frags[0] != "A" {
		t.Errorf("frags[0] = %q, want %q", frags[0], "A")
	}
	if frags[1] != `<break time="1s"/>` {
		t.Errorf("frags[1] = %q, want 1s break", frags[1])
	}
	if strings.TrimSpace(frags[2]) != "B. C" {
		t.Errorf("frags[2] = %q, want %q", frags[2], " B. C")
	}
}

func TestWithPausesWithoutPeriod(t *testing.T) {
	b := NewBuilder("en-US-AriaNeural")
	if err := Apply(b, "with_pauses", "no sentence end"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	frags := b.Fragments()
	if len(frags) != 1 || frags[0] != "no sentence end" {
		t.Errorf("fragments = %q, want single unmodified text", frags)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render("robot", "hi", "en-US-AriaNeural")
	if err == nil {
		t.Fatal("expected error for unknown template")
	}
	var terr *UnknownTemplateError
	if !errors.As(err, &terr) {
		t.Fatalf("error type = %T, want *UnknownTemplateError", err)
	}
	if terr.Name != "robot" {
		t.Errorf("Name = %q, want %q", terr.Name, "robot")
	}
	for _, name := range Templates() {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not list %q", err.Error(), name)
		}
	}
}
