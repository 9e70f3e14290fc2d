// Package edgetts talks to the Edge speech backend. The core only depends on
// the Synthesizer interface so the backend can be swapped in tests.
package edgetts

import (
	"context"
	"fmt"
)

// Synthesizer turns plain text or a markup document into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// SynthesisError carries the backend's error detail for a failed request.
type SynthesisError struct {
	Backend string
	Voice   string
	Detail  string
	Err     error
}

func (e *SynthesisError) Error() string {
	msg := fmt.Sprintf("edgetts: %s synthesis failed for voice %q", e.Backend, e.Voice)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SynthesisError) Unwrap() error { return e.Err }

func checkRequest(text, voice string) error {
	if voice == "" {
		return fmt.Errorf("edgetts: voice is required")
	}
	if text == "" {
		return fmt.Errorf("edgetts: text is required")
	}
	return nil
}
