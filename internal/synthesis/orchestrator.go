// Package synthesis coordinates voice resolution, markup checks and calls to
// the speech backend.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nupi-ai/plugin-tts-remote-edge/internal/cache"
	"github.com/nupi-ai/plugin-tts-remote-edge/internal/edgetts"
	"github.com/nupi-ai/plugin-tts-remote-edge/internal/ssml"
	"github.com/nupi-ai/plugin-tts-remote-edge/internal/storage"
	"github.com/nupi-ai/plugin-tts-remote-edge/internal/telemetry"
	"github.com/nupi-ai/plugin-tts-remote-edge/internal/voice"
)

const (
	DefaultMaxConcurrent = 3
	DefaultBatchSize     = 5
	DefaultFormat        = "mp3"
)

// Options wires optional collaborators. Zero values disable the feature or
// fall back to defaults.
type Options struct {
	Catalog        *voice.Catalog
	Store          storage.Store
	Cache          *cache.Cache
	Recorder       *telemetry.Recorder
	Format         string
	MaxConcurrent  int
	BatchSize      int
	ValidateVoices bool
}

// Orchestrator owns a voice catalog and turns text into audio through a
// Synthesizer.
type Orchestrator struct {
	synth          edgetts.Synthesizer
	catalog        *voice.Catalog
	store          storage.Store
	cache          *cache.Cache
	rec            *telemetry.Recorder
	log            *slog.Logger
	format         string
	maxConcurrent  int
	batchSize      int
	validateVoices bool
}

// Request is one synthesis call. An empty Alternate means no fallback voice.
// Render, when set, rebuilds Text and Markup for the alternate voice so a
// document naming the primary voice is not sent to the fallback.
type Request struct {
	Text      string
	Voice     string
	Alternate string
	Markup    bool
	Render    func(voice string) (string, bool, error)
}

// Result is the audio produced for a Request.
type Result struct {
	Audio  []byte
	Voice  string
	Cached bool
}

// New returns an orchestrator around synth.
func New(synth edgetts.Synthesizer, logger *slog.Logger, opts Options) *Orchestrator {
	if synth == nil {
		panic("synthesis: synthesizer must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		synth:          synth,
		catalog:        opts.Catalog,
		store:          opts.Store,
		cache:          opts.Cache,
		rec:            opts.Recorder,
		log:            logger.With("component", "orchestrator"),
		format:         opts.Format,
		maxConcurrent:  opts.MaxConcurrent,
		batchSize:      opts.BatchSize,
		validateVoices: opts.ValidateVoices,
	}
	if o.format == "" {
		o.format = DefaultFormat
	}
	if o.maxConcurrent <= 0 {
		o.maxConcurrent = DefaultMaxConcurrent
	}
	if o.batchSize <= 0 {
		o.batchSize = DefaultBatchSize
	}
	return o
}

// Synthesize returns audio for text spoken by voice. In markup mode text must
// be a complete document; it is checked strictly before the backend is called.
func (o *Orchestrator) Synthesize(ctx context.Context, text, voiceName string, markup bool) ([]byte, error) {
	res, err := o.synthesize(ctx, text, voiceName, markup)
	if err != nil {
		return nil, err
	}
	return res.Audio, nil
}

// SynthesizeSSML synthesizes an already built markup document.
func (o *Orchestrator) SynthesizeSSML(ctx context.Context, doc, voiceName string) ([]byte, error) {
	return o.Synthesize(ctx, doc, voiceName, true)
}

// SynthesizeTemplate renders text through the named template and synthesizes
// the resulting document.
func (o *Orchestrator) SynthesizeTemplate(ctx context.Context, name, text, voiceName string) ([]byte, error) {
	doc, err := ssml.Render(name, text, voiceName)
	if err != nil {
		return nil, err
	}
	return o.Synthesize(ctx, doc, voiceName, true)
}

// SynthesizeWithFallback tries primary and, when that fails and alternate is
// not empty, retries exactly once with alternate. The alternate's outcome is
// final.
func (o *Orchestrator) SynthesizeWithFallback(ctx context.Context, text, primary, alternate string) ([]byte, error) {
	res, err := o.Process(ctx, Request{Text: text, Voice: primary, Alternate: alternate})
	if err != nil {
		return nil, err
	}
	return res.Audio, nil
}

// Process runs a full request including the fallback step. Markup validation
// failures and cancellation are returned without trying the alternate voice.
func (o *Orchestrator) Process(ctx context.Context, req Request) (Result, error) {
	res, err := o.synthesize(ctx, req.Text, req.Voice, req.Markup)
	if err == nil || req.Alternate == "" {
		return res, err
	}
	var verr *ssml.ValidationError
	if errors.As(err, &verr) || ctx.Err() != nil {
		return Result{}, err
	}

	o.log.Warn("primary voice failed, retrying with alternate",
		"primary", req.Voice,
		"alternate", req.Alternate,
		"error", err,
	)
	o.rec.Fallback(ctx, req.Voice, req.Alternate)

	text, markup := req.Text, req.Markup
	if req.Render != nil {
		var rerr error
		if text, markup, rerr = req.Render(req.Alternate); rerr != nil {
			return Result{}, fmt.Errorf("synthesis: render for alternate voice %s: %w", req.Alternate, rerr)
		}
	}
	return o.synthesize(ctx, text, req.Alternate, markup)
}

func (o *Orchestrator) synthesize(ctx context.Context, text, voiceName string, markup bool) (Result, error) {
	if markup {
		if _, err := ssml.Check(text, true); err != nil {
			return Result{}, err
		}
	}
	if o.validateVoices {
		if err := o.checkVoice(ctx, voiceName); err != nil {
			return Result{}, err
		}
	}

	var key string
	if o.cache != nil {
		key = cache.Key(text, voiceName, markup, o.format)
		data, ok := o.cache.Get(key)
		o.rec.CacheLookup(ctx, ok)
		if ok {
			o.log.Debug("audio cache hit", "voice", voiceName, "bytes", len(data))
			return Result{Audio: data, Voice: voiceName, Cached: true}, nil
		}
	}

	start := time.Now()
	data, err := o.synth.Synthesize(ctx, text, voiceName)
	o.rec.Synthesis(ctx, voiceName, time.Since(start), len(data), err)
	if err != nil {
		return Result{}, err
	}

	if o.cache != nil {
		if err := o.cache.Put(key, data); err != nil {
			o.log.Warn("failed to store in cache", "error", err)
		}
	}
	return Result{Audio: data, Voice: voiceName}, nil
}

func (o *Orchestrator) checkVoice(ctx context.Context, name string) error {
	if o.catalog == nil {
		return ErrNoCatalog
	}
	_, ok, err := o.catalog.Find(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVoice, name)
	}
	return nil
}

// Voices returns the catalog's voice list, using the cache when allowed.
func (o *Orchestrator) Voices(ctx context.Context, force bool) ([]voice.Voice, error) {
	if o.catalog == nil {
		return nil, ErrNoCatalog
	}
	return o.catalog.Fetch(ctx, force)
}

// VoicesByLanguage returns voices whose locale or language prefix equals code.
func (o *Orchestrator) VoicesByLanguage(ctx context.Context, code string) ([]voice.Voice, error) {
	if o.catalog == nil {
		return nil, ErrNoCatalog
	}
	return o.catalog.ByLanguage(ctx, code)
}

// ResolveVoice returns the first catalog voice for language, or fallback.
func (o *Orchestrator) ResolveVoice(ctx context.Context, language, fallback string) (string, error) {
	if o.catalog == nil {
		return fallback, nil
	}
	return o.catalog.Resolve(ctx, language, fallback)
}

// ClearVoiceCache drops the cached voice list.
func (o *Orchestrator) ClearVoiceCache() {
	if o.catalog != nil {
		o.catalog.ClearCache()
	}
}
