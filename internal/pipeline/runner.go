package pipeline

import (
	"context"

	"github.com/hirelab/crucible/internal/model"
)

// Sink receives pipeline log lines as they are emitted. The job manager
// wires it to the job's log and the event bus.
type Sink func(line string)

// Runner executes one assessment generation end to end and returns the
// result reference (the output directory name). The job manager treats
// the run as opaque: it only observes log lines and the terminal outcome.
type Runner interface {
	Run(ctx context.Context, params model.Params, sink Sink) (string, error)
}
