package types

import (
	"errors"
	"fmt"
)

// ErrKind classifies pipeline failures so stage boundaries can make
// degraded-mode decisions explicitly instead of inspecting error text.
type ErrKind string

const (
	// ErrKindConfiguration indicates a missing credential or endpoint,
	// surfaced once at component startup.
	ErrKindConfiguration ErrKind = "configuration"

	// ErrKindTransientConnection indicates a network or auth failure on
	// an external call that may succeed on retry.
	ErrKindTransientConnection ErrKind = "transient_connection"

	// ErrKindGeneration indicates the chat completion call failed.
	ErrKindGeneration ErrKind = "generation"

	// ErrKindInternal covers genuinely unexpected failures.
	ErrKindInternal ErrKind = "internal"
)

// PipelineError carries a failure classification across a stage boundary.
type PipelineError struct {
	Kind ErrKind
	Op   string
	Err  error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError wraps err with a kind and the operation that failed.
func NewPipelineError(kind ErrKind, op string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the classification of err, defaulting to internal.
func KindOf(err error) ErrKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrKindInternal
}
