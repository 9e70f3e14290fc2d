// Package telemetry records adapter metrics through the OpenTelemetry metrics
// API.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/nupi-ai/plugin-tts-remote-edge"

// Status values attached to request counters.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

var latencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Recorder centralises telemetry for the adapter. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	synthRequests metric.Int64Counter
	synthDuration metric.Float64Histogram
	synthBytes    metric.Int64Counter
	fallbacks     metric.Int64Counter
	voiceFetches  metric.Int64Counter
	cacheLookups  metric.Int64Counter
}

// NewRecorder builds a recorder whose instruments come from mp. A nil mp
// uses the global meter provider.
func NewRecorder(mp metric.MeterProvider) (*Recorder, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	m := mp.Meter(meterName)
	r := &Recorder{}

	var err error
	if r.synthRequests, err = m.Int64Counter("edge_tts.synthesis.requests",
		metric.WithDescription("Synthesis attempts by voice and status."),
	); err != nil {
		return nil, err
	}
	if r.synthDuration, err = m.Float64Histogram("edge_tts.synthesis.duration",
		metric.WithDescription("Latency of one synthesis attempt."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if r.synthBytes, err = m.Int64Counter("edge_tts.synthesis.bytes",
		metric.WithDescription("Audio bytes produced."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if r.fallbacks, err = m.Int64Counter("edge_tts.synthesis.fallbacks",
		metric.WithDescription("Requests retried with the alternate voice."),
	); err != nil {
		return nil, err
	}
	if r.voiceFetches, err = m.Int64Counter("edge_tts.voices.fetches",
		metric.WithDescription("Voice catalog fetches by status."),
	); err != nil {
		return nil, err
	}
	if r.cacheLookups, err = m.Int64Counter("edge_tts.cache.lookups",
		metric.WithDescription("Audio cache lookups by result."),
	); err != nil {
		return nil, err
	}
	return r, nil
}

// Synthesis records one synthesis attempt.
func (r *Recorder) Synthesis(ctx context.Context, voice string, elapsed time.Duration, size int, err error) {
	if r == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	attrs := metric.WithAttributes(
		attribute.String("voice", voice),
		attribute.String("status", status),
	)
	r.synthRequests.Add(ctx, 1, attrs)
	r.synthDuration.Record(ctx, elapsed.Seconds(), attrs)
	if err == nil {
		r.synthBytes.Add(ctx, int64(size), metric.WithAttributes(attribute.String("voice", voice)))
	}
}

// Fallback records a retry with the alternate voice.
func (r *Recorder) Fallback(ctx context.Context, primary, alternate string) {
	if r == nil {
		return
	}
	r.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String("primary", primary),
		attribute.String("alternate", alternate),
	))
}

// VoiceFetch records one call to the voice-catalog service.
func (r *Recorder) VoiceFetch(ctx context.Context, err error) {
	if r == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	r.voiceFetches.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// CacheLookup records an audio cache hit or miss.
func (r *Recorder) CacheLookup(ctx context.Context, hit bool) {
	if r == nil {
		return
	}
	r.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}
