package edgetts

import (
	"context"
	"log/slog"
)

// StubSynthesizer implements Synthesizer with deterministic output (silence).
// It is intended for CI and environments without the edge-tts tool.
type StubSynthesizer struct {
	log *slog.Logger
}

// NewStubSynthesizer returns a stub that generates silent audio proportional
// to the input text length.
func NewStubSynthesizer(logger *slog.Logger) *StubSynthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubSynthesizer{log: logger.With("component", "stub_synthesizer")}
}

// Synthesize returns len(text)*320 zero bytes (about 10 ms of 16 kHz mono PCM16
// per character).
func (s *StubSynthesizer) Synthesize(_ context.Context, text, voice string) ([]byte, error) {
	if err := checkRequest(text, voice); err != nil {
		return nil, err
	}

	pcm := make([]byte, len(text)*320)

	s.log.Info("stub synthesis",
		"text_length", len(text),
		"voice", voice,
		"bytes", len(pcm),
	)
	return pcm, nil
}
