// Package orchestrator runs agent cycles and owns the approval workflow.
//
// A cycle runs every agent in order. Actions that need no approval are
// marked approved and executed before RunCycle returns; the rest wait in
// the approval queue until Approve or Reject is called.
package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"finsphere/internal/agents"
	"finsphere/internal/core"
	"finsphere/internal/log"
	"finsphere/internal/storage"
)

type Orchestrator struct {
	store    storage.TransactionStore
	agents   []agents.Agent
	queue    *Queue
	executor *Executor
	logger   *log.Logger

	cycleMu sync.Mutex
	wg      sync.WaitGroup
}

// New wires an orchestrator. A nil executor gets the default handlers with
// no event publisher.
func New(store storage.TransactionStore, agentList []agents.Agent, executor *Executor, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if executor == nil {
		executor = NewExecutor(nil, logger)
	}
	return &Orchestrator{
		store:    store,
		agents:   agentList,
		queue:    NewQueue(),
		executor: executor,
		logger:   logger.WithComponent(log.ComponentOrchestrator),
	}
}

// RunCycle runs every agent once and routes their actions. A failing or
// panicking agent is logged and skipped. Cycles never overlap.
func (o *Orchestrator) RunCycle(ctx context.Context) []core.AgentAction {
	o.cycleMu.Lock()
	defer o.cycleMu.Unlock()

	cycleID := uuid.NewString()
	logger := o.logger.With(log.NewFields().WithCycle(cycleID).ToSlice()...)
	logger.InfoContext(ctx, "Starting agent cycle", "agents", len(o.agents))

	var actions []core.AgentAction
	for _, a := range o.agents {
		if err := ctx.Err(); err != nil {
			logger.WarnContext(ctx, "Cycle cancelled, skipping remaining agents", log.FieldError, err)
			break
		}
		produced, err := o.runAgent(ctx, a)
		if err != nil {
			logger.ErrorContext(ctx, "Agent failed", log.FieldAgent, a.Name(), log.FieldError, err)
			continue
		}
		logger.DebugContext(ctx, "Agent finished", log.FieldAgent, a.Name(), log.FieldCount, len(produced))
		actions = append(actions, produced...)
	}

	var executed, queued int
	for i := range actions {
		if actions[i].ApprovalRequired {
			o.queue.Add(actions[i])
			queued++
			continue
		}
		if err := actions[i].Transition(core.StatusApproved); err != nil {
			logger.ErrorContext(ctx, "Cannot approve action", log.FieldActionID, actions[i].ID, log.FieldError, err)
			continue
		}
		if err := o.executor.Execute(ctx, actions[i]); err != nil {
			logger.ErrorContext(ctx, "Action execution failed", log.FieldActionID, actions[i].ID, log.FieldError, err)
			continue
		}
		executed++
	}

	logger.InfoContext(ctx, "Agent cycle complete",
		"actions", len(actions),
		"executed", executed,
		"queued", queued)
	return actions
}

func (o *Orchestrator) runAgent(ctx context.Context, a agents.Agent) (actions []core.AgentAction, err error) {
	defer func() {
		if r := recover(); r != nil {
			actions, err = nil, fmt.Errorf("agent %s panicked: %v", a.Name(), r)
		}
	}()
	return a.Execute(ctx, o.store)
}

// PendingApprovals returns the queued actions still awaiting a decision.
func (o *Orchestrator) PendingApprovals() []core.AgentAction {
	return o.queue.Pending()
}

// Queue returns every queued action, decided or not.
func (o *Orchestrator) Queue() []core.AgentAction {
	return o.queue.All()
}

// Approve marks the first pending action with id approved and executes it
// in the background. The returned Execution reports when it has finished.
// It returns false when no pending action matches.
func (o *Orchestrator) Approve(ctx context.Context, id string) (*Execution, bool) {
	action, ok := o.queue.Decide(id, core.StatusApproved)
	if !ok {
		return nil, false
	}
	o.logger.InfoContext(ctx, "Action approved", log.NewFields().WithAction(action).WithOperation(log.OpApprove).ToSlice()...)

	exec := newExecution(action)
	runCtx := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		err := o.executor.Execute(runCtx, action)
		if err != nil {
			o.logger.ErrorContext(runCtx, "Approved action failed", log.FieldActionID, action.ID, log.FieldError, err)
		}
		exec.finish(err)
	}()
	return exec, true
}

// Reject marks the first pending action with id rejected. It is never executed.
func (o *Orchestrator) Reject(ctx context.Context, id string) bool {
	action, ok := o.queue.Decide(id, core.StatusRejected)
	if !ok {
		return false
	}
	o.logger.InfoContext(ctx, "Action rejected", log.NewFields().WithAction(action).WithOperation(log.OpReject).ToSlice()...)
	return true
}

// Wait blocks until every execution started by Approve has finished or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
