package orchestrator

import (
	"context"

	"finsphere/internal/core"
)

// Execution tracks an approved action running in the background.
type Execution struct {
	Action core.AgentAction

	done chan struct{}
	err  error
}

func newExecution(a core.AgentAction) *Execution {
	return &Execution{Action: a, done: make(chan struct{})}
}

func (e *Execution) finish(err error) {
	e.err = err
	close(e.done)
}

// Done is closed once the action has been executed.
func (e *Execution) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the execution finishes and returns its error, or
// returns ctx.Err() if ctx ends first.
func (e *Execution) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return e.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
