package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent retrieval failures.
// Callers match them with errors.Is; wrapped errors carry the failing input.
var (
	// ErrSchema indicates a corpus record is malformed or misses a required field.
	// It is fatal to Build and never retryable.
	ErrSchema = errors.New("schema error")

	// ErrNotFound indicates a requested entity or source path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDimensionMismatch indicates embeddings of inconsistent length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotReady indicates a query was issued before a successful build.
	ErrNotReady = errors.New("engine not ready")

	// ErrInvalidArgument indicates an out-of-range query parameter.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmbeddingProvider indicates the external embedding call failed.
	// It is propagated as is and never retried internally.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrInvalidState indicates an operation not allowed in the engine's current state,
	// such as a second Build.
	ErrInvalidState = errors.New("invalid engine state")

	// ErrIndexMismatch indicates the lexical and vector indexes disagree with the corpus.
	ErrIndexMismatch = errors.New("index does not match corpus")

	// ErrSnapshotNotFound indicates no persisted snapshot exists yet.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrUnsupportedType indicates an unknown tokenizer, provider or source kind.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// SchemaError reports which record and field of a corpus source is invalid.
type SchemaError struct {
	// Source is the file the record came from.
	Source string

	// Record is the zero-based record position within the source.
	Record int

	// Field is the missing or invalid field name.
	Field string

	// Reason is an optional explanation; empty means the field is missing.
	Reason string
}

func (e *SchemaError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "missing required field"
	}
	return fmt.Sprintf("%s: %s record %d field %q: %s", ErrSchema, e.Source, e.Record, e.Field, reason)
}

// Is reports whether target is ErrSchema.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// DimensionMismatchError reports the first vector whose length disagrees.
type DimensionMismatchError struct {
	// Index is the item index of the offending vector, -1 for a query vector.
	Index int

	// Want is the expected dimension.
	Want int

	// Got is the offending vector's length.
	Got int
}

func (e *DimensionMismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: query has %d dimensions, index has %d", ErrDimensionMismatch, e.Got, e.Want)
	}
	return fmt.Sprintf("%s: item %d has %d dimensions, want %d", ErrDimensionMismatch, e.Index, e.Got, e.Want)
}

// Is reports whether target is ErrDimensionMismatch.
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
