package scheduler

import (
	"context"

	"finsphere/internal/core"
)

// CycleRunner runs one agent cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) []core.AgentAction
}

// CycleJob runs an agent cycle on each tick.
type CycleJob struct {
	runner CycleRunner
}

func NewCycleJob(runner CycleRunner) *CycleJob {
	return &CycleJob{runner: runner}
}

func (j *CycleJob) Name() string { return "agent_cycle" }

func (j *CycleJob) Run(ctx context.Context) error {
	j.runner.RunCycle(ctx)
	return ctx.Err()
}
