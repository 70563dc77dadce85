package model

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned for status/log queries on unknown job ids.
	ErrJobNotFound = errors.New("job not found")

	// ErrQueueFull is returned when a submission cannot be enqueued; the
	// caller must retry later, no job record is kept.
	ErrQueueFull = errors.New("job queue is full")
)

// ValidationError rejects a malformed submission before any job record is
// created.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// PipelineError wraps a failure inside a pipeline stage. It is recorded on
// the job as the terminal failure and never reaches an HTTP caller directly.
type PipelineError struct {
	Stage string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
