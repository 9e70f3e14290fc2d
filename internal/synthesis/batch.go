package synthesis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// PositionPlaceholder in a filename template is replaced by the item's
// 1-based position.
const PositionPlaceholder = "{}"

// BatchSynthesize synthesizes texts in order and stops at the first failure,
// returning a *BatchError with its position. Later items are not attempted.
func (o *Orchestrator) BatchSynthesize(ctx context.Context, texts []string, voiceName string, markup bool) ([][]byte, error) {
	out := make([][]byte, 0, len(texts))
	for i, text := range texts {
		o.log.Info("synthesizing batch item", "position", i+1, "total", len(texts), "voice", voiceName)
		data, err := o.Synthesize(ctx, text, voiceName, markup)
		if err != nil {
			return nil, &BatchError{Op: "synthesize", Position: i + 1, Err: err}
		}
		out = append(out, data)
		o.progress(i+1, len(texts))
	}
	return out, nil
}

// BatchSynthesizeConcurrent runs up to MaxConcurrent requests at once and
// returns results in input order. Failure reporting matches BatchSynthesize:
// the lowest failing position wins, and items after a known failure are not
// started.
func (o *Orchestrator) BatchSynthesizeConcurrent(ctx context.Context, texts []string, voiceName string, markup bool) ([][]byte, error) {
	out := make([][]byte, len(texts))
	errs := make([]error, len(texts))

	var mu sync.Mutex
	firstFailure := len(texts)
	skip := func(i int) bool {
		mu.Lock()
		defer mu.Unlock()
		return i > firstFailure
	}
	fail := func(i int) {
		mu.Lock()
		defer mu.Unlock()
		if i < firstFailure {
			firstFailure = i
		}
	}

	// Failures are recorded per position instead of returned to the group:
	// the group must not cancel items before the failure, and Wait would only
	// report whichever error arrived first.
	var g errgroup.Group
	g.SetLimit(o.maxConcurrent)
	for i, text := range texts {
		if skip(i) {
			break
		}
		g.Go(func() error {
			if skip(i) {
				return nil
			}
			data, err := o.Synthesize(ctx, text, voiceName, markup)
			if err != nil {
				errs[i] = err
				fail(i)
				return nil
			}
			out[i] = data
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, &BatchError{Op: "synthesize", Position: i + 1, Err: err}
		}
	}
	o.log.Info("concurrent batch completed", "total", len(texts), "max_concurrent", o.maxConcurrent)
	return out, nil
}

// BatchSave persists items in order, naming each by substituting its 1-based
// position into filenameTemplate. It stops at the first failed save.
func (o *Orchestrator) BatchSave(ctx context.Context, items [][]byte, filenameTemplate string) ([]string, error) {
	if o.store == nil {
		return nil, ErrNoStore
	}
	if len(items) == 0 {
		return nil, nil
	}
	if !strings.Contains(filenameTemplate, PositionPlaceholder) {
		return nil, fmt.Errorf("synthesis: filename template %q has no %s placeholder", filenameTemplate, PositionPlaceholder)
	}

	paths := make([]string, 0, len(items))
	for i, data := range items {
		if err := ctx.Err(); err != nil {
			return nil, &BatchError{Op: "save", Position: i + 1, Err: err}
		}
		name := FilenameFor(filenameTemplate, i+1)
		path, err := o.store.Save(data, name)
		if err != nil {
			return nil, &BatchError{Op: "save", Position: i + 1, Err: err}
		}
		o.log.Info("saved batch item", "position", i+1, "total", len(items), "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}

// Save persists one audio payload under filename.
func (o *Orchestrator) Save(_ context.Context, data []byte, filename string) (string, error) {
	if o.store == nil {
		return "", ErrNoStore
	}
	return o.store.Save(data, filename)
}

// FilenameFor substitutes position into every placeholder of template.
func FilenameFor(template string, position int) string {
	return strings.ReplaceAll(template, PositionPlaceholder, strconv.Itoa(position))
}

func (o *Orchestrator) progress(done, total int) {
	if done%o.batchSize == 0 || done == total {
		o.log.Info("batch progress", "done", done, "total", total)
	}
}
