package voice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Catalog answers voice queries against a Source, optionally caching the
// last successful fetch. It is safe for concurrent use; fetches are
// serialized so a concurrent ClearCache never races a cache replace.
type Catalog struct {
	source  Source
	caching bool
	log     *slog.Logger

	mu     sync.Mutex
	voices []Voice // nil when nothing is cached
}

// NewCatalog returns a catalog backed by source. When caching is false every
// query goes to the source.
func NewCatalog(source Source, caching bool, logger *slog.Logger) *Catalog {
	if source == nil {
		panic("voice: source must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		source:  source,
		caching: caching,
		log:     logger.With("component", "voice_catalog"),
	}
}

// Fetch returns the voice list. A cached list is returned unchanged when
// caching is enabled and force is false.
func (c *Catalog) Fetch(ctx context.Context, force bool) ([]Voice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchLocked(ctx, force)
}

// Refresh discards the cache and fetches again as one step.
func (c *Catalog) Refresh(ctx context.Context) ([]Voice, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voices = nil
	return c.fetchLocked(ctx, true)
}

// ClearCache discards any cached voice list.
func (c *Catalog) ClearCache() {
	c.mu.Lock()
	c.voices = nil
	c.mu.Unlock()
	c.log.Debug("voice cache cleared")
}

// Cached reports whether a voice list is currently cached.
func (c *Catalog) Cached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voices != nil
}

// ByLanguage returns the voices whose locale or language code equals code.
// No case folding is applied.
func (c *Catalog) ByLanguage(ctx context.Context, code string) ([]Voice, error) {
	voices, err := c.Fetch(ctx, false)
	if err != nil {
		return nil, err
	}
	return FilterByLanguage(voices, code), nil
}

// Find looks up a voice by its exact name.
func (c *Catalog) Find(ctx context.Context, name string) (Voice, bool, error) {
	voices, err := c.Fetch(ctx, false)
	if err != nil {
		return Voice{}, false, err
	}
	v, ok := FindByName(voices, name)
	return v, ok, nil
}

// Resolve returns the first voice name for language, or fallback when the
// catalog has no voice for it.
func (c *Catalog) Resolve(ctx context.Context, language, fallback string) (string, error) {
	voices, err := c.ByLanguage(ctx, language)
	if err != nil {
		return "", err
	}
	if len(voices) == 0 {
		c.log.Info("no voice for language, using fallback", "language", language, "fallback", fallback)
		return fallback, nil
	}
	return voices[0].Name, nil
}

func (c *Catalog) fetchLocked(ctx context.Context, force bool) ([]Voice, error) {
	if c.caching && c.voices != nil && !force {
		return clone(c.voices), nil
	}

	records, err := c.source.ListVoices(ctx)
	if err != nil {
		return nil, err
	}

	voices := make([]Voice, 0, len(records))
	for i, r := range records {
		v, err := New(r.ShortName, r.FriendlyName, r.Locale, r.Gender)
		if err != nil {
			return nil, fmt.Errorf("voice: record %d: %w: %v", i, ErrMalformedResponse, err)
		}
		voices = append(voices, v)
	}
	c.log.Debug("fetched voice list", "count", len(voices), "forced", force)

	if c.caching {
		c.voices = voices
	}
	return clone(voices), nil
}

func clone(voices []Voice) []Voice {
	out := make([]Voice, len(voices))
	copy(out, voices)
	return out
}
