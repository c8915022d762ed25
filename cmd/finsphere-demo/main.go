// Command finsphere-demo seeds an in-memory store with a month of sample
// activity, runs one agent cycle and approves whatever the agents queued.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"finsphere/internal/agents"
	"finsphere/internal/core"
	"finsphere/internal/log"
	"finsphere/internal/orchestrator"
	"finsphere/internal/rules"
	"finsphere/internal/storage/memory"
)

type sample struct {
	daysAgo     int
	amount      float64
	typ         core.TransactionType
	description string
	merchant    string
}

var samples = []sample{
	{0, 1300, core.Expense, "Uber ride to airport", "Uber"},
	{1, 86.40, core.Expense, "Weekly groceries", "Whole Foods"},
	{3, 45.00, core.Expense, "Dinner with friends", "Olive Garden"},
	{5, 120.00, core.Expense, "Electric bill", "City Power"},
	{8, 15.99, core.Expense, "Netflix subscription", "Netflix"},
	{10, 6000, core.Income, "Monthly salary", "Acme Corp"},
	{12, 210.00, core.Expense, "Shopping at Amazon", "Amazon"},
	{15, 60.00, core.Expense, "Pharmacy", "CVS"},
	{20, 500, core.Transfer, "Move to savings", ""},
	{25, 95.20, core.Expense, "Groceries", "Trader Joe's"},
}

var (
	title   = color.New(color.FgCyan, color.Bold).SprintFunc()
	auto    = color.New(color.FgGreen).SprintFunc()
	pending = color.New(color.FgYellow).SprintFunc()
	failed  = color.New(color.FgRed).SprintFunc()
	muted   = color.New(color.Faint).SprintFunc()
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, failed("demo failed: ", err))
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	now := time.Now()

	store := memory.New()
	for _, s := range samples {
		tx := core.Transaction{
			ID:          uuid.NewString(),
			Date:        now.AddDate(0, 0, -s.daysAgo),
			Amount:      core.MoneyFromFloat(s.amount),
			Description: s.description,
			Merchant:    s.merchant,
			Type:        s.typ,
		}
		if err := store.Upsert(ctx, tx); err != nil {
			return fmt.Errorf("seed transaction: %w", err)
		}
	}

	logger := log.New(log.Config{Level: log.ParseLevel(os.Getenv("LOG_LEVEL"))})
	if os.Getenv("LOG_LEVEL") == "" {
		logger = log.Discard()
	}

	orch := orchestrator.New(store, agents.Default(rules.Default(now), nil), orchestrator.NewExecutor(nil, logger), logger)

	fmt.Println(title("FinSphere agent cycle"))
	actions := orch.RunCycle(ctx)
	printActions(actions)

	queued := orch.PendingApprovals()
	fmt.Printf("\n%s %d action(s) awaiting approval\n", title("Approvals:"), len(queued))

	var executions []*orchestrator.Execution
	for _, a := range queued {
		exec, ok := orch.Approve(ctx, a.ID)
		if !ok {
			continue
		}
		executions = append(executions, exec)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, exec := range executions {
		if err := exec.Wait(waitCtx); err != nil {
			fmt.Printf("  %s %s: %v\n", failed("✗"), exec.Action.ID, err)
			continue
		}
		fmt.Printf("  %s %s\n", auto("✓"), exec.Action.ID)
	}
	return nil
}

func printActions(actions []core.AgentAction) {
	byAgent := make(map[string][]core.AgentAction)
	for _, a := range actions {
		byAgent[a.AgentName] = append(byAgent[a.AgentName], a)
	}
	names := make([]string, 0, len(byAgent))
	for name := range byAgent {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("\n%s\n", title(name))
		for _, a := range byAgent[name] {
			status := auto(string(a.Status))
			if a.ApprovalRequired {
				status = pending("needs approval")
			}
			fmt.Printf("  %-40s %-20s %s %s\n", a.ID, a.ActionType, status, muted(fmt.Sprintf("(%.2f)", a.Confidence)))
		}
	}
}
