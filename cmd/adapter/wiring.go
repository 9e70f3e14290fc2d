package main

import (
	"context"
	"time"

	"github.com/nupi-ai/plugin-tts-remote-edge/internal/edgetts"
	"github.com/nupi-ai/plugin-tts-remote-edge/internal/telemetry"
	"github.com/nupi-ai/plugin-tts-remote-edge/internal/voice"
)

// timeoutSynthesizer bounds every backend call by the configured timeout.
type timeoutSynthesizer struct {
	next    edgetts.Synthesizer
	timeout time.Duration
}

func (t timeoutSynthesizer) Synthesize(ctx context.Context, text, voiceName string) ([]byte, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	return t.next.Synthesize(ctx, text, voiceName)
}

// recordingSource counts voice list fetches.
type recordingSource struct {
	next voice.Source
	rec  *telemetry.Recorder
}

func (s recordingSource) ListVoices(ctx context.Context) ([]voice.Record, error) {
	records, err := s.next.ListVoices(ctx)
	s.rec.VoiceFetch(ctx, err)
	return records, err
}
