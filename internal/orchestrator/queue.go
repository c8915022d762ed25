package orchestrator

import (
	"sync"

	"finsphere/internal/core"
)

// Queue holds actions awaiting a decision. Entries are kept after a
// decision so the full history stays inspectable; the same id may appear
// more than once across cycles.
type Queue struct {
	mu    sync.Mutex
	items []*core.AgentAction
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Add(a core.AgentAction) {
	c := a.Clone()
	q.mu.Lock()
	q.items = append(q.items, &c)
	q.mu.Unlock()
}

// Pending returns copies of the actions still awaiting a decision, oldest first.
func (q *Queue) Pending() []core.AgentAction {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []core.AgentAction
	for _, a := range q.items {
		if a.IsPending() {
			out = append(out, a.Clone())
		}
	}
	return out
}

// All returns copies of every queued action regardless of status.
func (q *Queue) All() []core.AgentAction {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]core.AgentAction, len(q.items))
	for i, a := range q.items {
		out[i] = a.Clone()
	}
	return out
}

// Decide moves the first pending action with id to status and returns a
// copy of it. It reports false when no pending action has that id.
func (q *Queue) Decide(id string, to core.ActionStatus) (core.AgentAction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, a := range q.items {
		if a.ID != id || !a.IsPending() {
			continue
		}
		if err := a.Transition(to); err != nil {
			return core.AgentAction{}, false
		}
		return a.Clone(), true
	}
	return core.AgentAction{}, false
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
