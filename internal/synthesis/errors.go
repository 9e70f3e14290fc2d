package synthesis

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownVoice is returned when voice validation is enabled and the
	// requested voice is not in the catalog.
	ErrUnknownVoice = errors.New("synthesis: unknown voice")
	// ErrNoCatalog is returned by catalog operations on an orchestrator built
	// without one.
	ErrNoCatalog = errors.New("synthesis: no voice catalog configured")
	// ErrNoStore is returned by save operations on an orchestrator built
	// without a store.
	ErrNoStore = errors.New("synthesis: no audio store configured")
)

// BatchError names the 1-based position of the item that stopped a batch.
type BatchError struct {
	Op       string
	Position int
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("synthesis: batch %s failed at item %d: %v", e.Op, e.Position, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
