package rag

import (
	"errors"
	"fmt"
)

// ErrNoContext means a query hit a source with no ingested chunks.
// Surfaced to the user as "process this source first".
var ErrNoContext = errors.New("no context available for source")

// EmbeddingError wraps a failure from the embedding model. Fatal to
// the current request only.
type EmbeddingError struct {
	Model string
	Err   error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed (model %s): %v", e.Model, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }
