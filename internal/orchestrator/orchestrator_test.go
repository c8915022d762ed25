package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsphere/internal/agents"
	"finsphere/internal/core"
	"finsphere/internal/log"
	"finsphere/internal/rules"
	"finsphere/internal/storage"
	"finsphere/internal/storage/memory"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

type funcAgent struct {
	name string
	fn   func() ([]core.AgentAction, error)
}

func (a funcAgent) Name() string { return a.name }
func (a funcAgent) Execute(context.Context, storage.TransactionStore) ([]core.AgentAction, error) {
	return a.fn()
}

func emit(name string, actions ...core.AgentAction) funcAgent {
	return funcAgent{name: name, fn: func() ([]core.AgentAction, error) { return actions, nil }}
}

func action(id string, typ core.ActionType, approval bool) core.AgentAction {
	return core.NewAction(id, "test", typ, map[string]any{"id": id}, approval, 1, testNow)
}

type recorder struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorder) handler(_ context.Context, a core.AgentAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, a.ID)
	return nil
}

func (r *recorder) executed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

type stubPublisher struct {
	mu     sync.Mutex
	err    error
	events []string
}

func (p *stubPublisher) PublishActionExecuted(_ context.Context, a core.AgentAction, _ time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, a.ID)
	return p.err
}

func newTestOrchestrator(pub EventPublisher, agentList ...agents.Agent) (*Orchestrator, *recorder) {
	rec := &recorder{}
	exec := NewExecutor(pub, log.Discard())
	for _, typ := range []core.ActionType{core.ActionCategorize, core.ActionBudgetAdjust, core.ActionPaymentExecute, core.ActionReportGenerate} {
		exec.Handle(typ, rec.handler)
	}
	return New(memory.New().WithClock(clock), agentList, exec, log.Discard()), rec
}

func TestRunCycle_RoutesByApproval(t *testing.T) {
	o, rec := newTestOrchestrator(nil,
		emit("a", action("auto-1", core.ActionCategorize, false), action("needs-1", core.ActionBudgetAdjust, true)),
		emit("b", action("auto-2", core.ActionReportGenerate, false)),
	)

	actions := o.RunCycle(context.Background())
	require.Len(t, actions, 3)

	assert.Equal(t, core.StatusApproved, actions[0].Status)
	assert.Equal(t, core.StatusPending, actions[1].Status)
	assert.Equal(t, core.StatusApproved, actions[2].Status)
	assert.Equal(t, []string{"auto-1", "auto-2"}, rec.executed(), "auto actions run before RunCycle returns")

	pending := o.PendingApprovals()
	require.Len(t, pending, 1)
	assert.Equal(t, "needs-1", pending[0].ID)
	assert.Equal(t, core.StatusPending, pending[0].Status)
}

func TestRunCycle_ToleratesAgentFailures(t *testing.T) {
	o, _ := newTestOrchestrator(nil,
		funcAgent{name: "broken", fn: func() ([]core.AgentAction, error) { return nil, errors.New("disk I/O error") }},
		funcAgent{name: "panics", fn: func() ([]core.AgentAction, error) { panic("nil map") }},
		emit("healthy", action("ok", core.ActionCategorize, false)),
	)

	actions := o.RunCycle(context.Background())
	require.Len(t, actions, 1)
	assert.Equal(t, "ok", actions[0].ID)
}

func TestRunCycle_StopsWhenContextCancelled(t *testing.T) {
	o, rec := newTestOrchestrator(nil, emit("a", action("auto", core.ActionCategorize, false)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Empty(t, o.RunCycle(ctx))
	assert.Empty(t, rec.executed())
}

func TestRunCycle_DoesNotDeduplicateAcrossCycles(t *testing.T) {
	o, _ := newTestOrchestrator(nil, emit("a", action("budget_food", core.ActionBudgetAdjust, true)))

	o.RunCycle(context.Background())
	o.RunCycle(context.Background())

	assert.Len(t, o.PendingApprovals(), 2)
}

func TestApprove(t *testing.T) {
	ctx := context.Background()
	o, rec := newTestOrchestrator(nil, emit("a", action("pay", core.ActionPaymentExecute, true)))
	o.RunCycle(ctx)

	exec, ok := o.Approve(ctx, "missing")
	assert.False(t, ok)
	assert.Nil(t, exec)

	exec, ok = o.Approve(ctx, "pay")
	require.True(t, ok)
	require.NoError(t, exec.Wait(ctx))
	assert.Equal(t, core.StatusApproved, exec.Action.Status)
	assert.Equal(t, []string{"pay"}, rec.executed())

	select {
	case <-exec.Done():
	default:
		t.Fatal("Done should be closed after Wait returns")
	}

	assert.Empty(t, o.PendingApprovals())
	_, ok = o.Approve(ctx, "pay")
	assert.False(t, ok, "an approved action cannot be approved again")

	all := o.Queue()
	require.Len(t, all, 1)
	assert.Equal(t, core.StatusApproved, all[0].Status)
}

func TestApprove_TakesFirstPendingMatch(t *testing.T) {
	ctx := context.Background()
	o, _ := newTestOrchestrator(nil, emit("a", action("dup", core.ActionBudgetAdjust, true)))
	o.RunCycle(ctx)
	o.RunCycle(ctx)

	exec, ok := o.Approve(ctx, "dup")
	require.True(t, ok)
	require.NoError(t, exec.Wait(ctx))

	all := o.Queue()
	require.Len(t, all, 2)
	assert.Equal(t, core.StatusApproved, all[0].Status)
	assert.Equal(t, core.StatusPending, all[1].Status)
}

func TestApprove_ReportsHandlerError(t *testing.T) {
	ctx := context.Background()
	o, _ := newTestOrchestrator(nil, emit("a", action("pay", core.ActionPaymentExecute, true)))
	boom := errors.New("bank unavailable")
	o.executor.Handle(core.ActionPaymentExecute, func(context.Context, core.AgentAction) error { return boom })
	o.RunCycle(ctx)

	exec, ok := o.Approve(ctx, "pay")
	require.True(t, ok)
	assert.ErrorIs(t, exec.Wait(ctx), boom)
	require.NoError(t, o.Wait(ctx))
}

func TestExecution_WaitHonoursContext(t *testing.T) {
	exec := newExecution(action("slow", core.ActionAlertSend, true))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, exec.Wait(ctx), context.DeadlineExceeded)
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	o, rec := newTestOrchestrator(nil, emit("a", action("invest", core.ActionBudgetAdjust, true)))
	o.RunCycle(ctx)

	assert.False(t, o.Reject(ctx, "missing"))
	assert.True(t, o.Reject(ctx, "invest"))
	assert.False(t, o.Reject(ctx, "invest"))

	_, ok := o.Approve(ctx, "invest")
	assert.False(t, ok, "rejected actions cannot be approved")
	require.NoError(t, o.Wait(ctx))

	assert.Empty(t, o.PendingApprovals())
	assert.Empty(t, rec.executed())
	assert.Equal(t, core.StatusRejected, o.Queue()[0].Status)
}

func TestExecutor_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	pub := &stubPublisher{err: errors.New("broker down")}
	o, rec := newTestOrchestrator(pub, emit("a", action("auto", core.ActionCategorize, false), action("pay", core.ActionPaymentExecute, true)))

	o.RunCycle(ctx)
	exec, ok := o.Approve(ctx, "pay")
	require.True(t, ok)
	require.NoError(t, exec.Wait(ctx), "publish failures never fail execution")

	assert.Equal(t, []string{"auto", "pay"}, rec.executed())
	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, []string{"auto", "pay"}, pub.events)
}

func TestExecutor_UnknownTypeIsApplied(t *testing.T) {
	e := NewExecutor(nil, log.Discard())
	assert.NoError(t, e.Execute(context.Background(), action("tax", core.ActionTaxPrepare, false)))
	assert.NoError(t, e.Execute(context.Background(), action("alert", core.ActionAlertSend, false)))
}

func TestRunCycle_UberRideEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := memory.New().WithClock(clock)
	require.NoError(t, store.Upsert(ctx, core.Transaction{
		ID:          "tx-1",
		Date:        testNow,
		Amount:      core.MoneyFromFloat(1300),
		Description: "Uber ride to airport",
		Type:        core.Expense,
	}))

	r := rules.Default(testNow)
	r.RecurringPayments = nil
	r.Invoices = nil
	o := New(store, agents.Default(r, clock), NewExecutor(nil, log.Discard()), log.Discard())

	actions := o.RunCycle(ctx)

	byID := make(map[string]core.AgentAction)
	for _, a := range actions {
		byID[a.ID] = a
	}

	cat, ok := byID["cat_tx-1"]
	require.True(t, ok)
	assert.False(t, cat.ApprovalRequired)
	assert.Equal(t, core.StatusApproved, cat.Status)
	assert.Equal(t, "transport", cat.Data["category"])

	stored, err := store.Get(ctx, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, "transport", stored.Category)

	report, ok := byID["report_20250615"]
	require.True(t, ok)
	assert.Equal(t, core.StatusApproved, report.Status)
	assert.Equal(t, 1300.0, report.Data["totalExpenses"])
	assert.Equal(t, 1300.0, report.Data["averageTransaction"])
	assert.Equal(t, map[string]float64{"transport": 1300}, report.Data["categoryBreakdown"])

	budget, ok := byID["budget_transport"]
	require.True(t, ok, "1300 against a 200 cap is over budget")
	assert.Equal(t, core.StatusPending, budget.Status)
	assert.Equal(t, agents.SuggestionReduceSpending, budget.Data["suggestion"])

	pending := o.PendingApprovals()
	require.Len(t, pending, 1)
	assert.Equal(t, "budget_transport", pending[0].ID)
}

func TestRunCycle_LogsCarryCycleID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, nil)})
	agentList := []agents.Agent{
		funcAgent{name: "broken", fn: func() ([]core.AgentAction, error) { return nil, errors.New("disk I/O error") }},
	}
	o := New(memory.New().WithClock(clock), agentList, NewExecutor(nil, log.Discard()), logger)

	o.RunCycle(context.Background())

	out := buf.String()
	assert.Contains(t, out, "Agent failed")
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		assert.Contains(t, line, log.FieldCycleID+"=")
	}
}
