package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput indicates malformed ingestion input, such as an empty
	// document or an overlap that is not smaller than the window size.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelUnavailable indicates the embedding or generation backend could
	// not be initialized, typically a missing API key.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrDimensionMismatch indicates a vector whose dimension disagrees with
	// the index.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCorruptIndex indicates a snapshot that cannot be restored into a
	// consistent index.
	ErrCorruptIndex = errors.New("corrupt index snapshot")

	// ErrEmptyIndex indicates a search against an index with no entries.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrInvalidQuery indicates an empty or otherwise unusable query.
	ErrInvalidQuery = errors.New("invalid query")
)

// GenerationError wraps a failure from the generation backend. Transient
// marks failures worth retrying later (rate limits, server errors, network);
// authentication and quota failures are permanent.
type GenerationError struct {
	Transient bool
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
