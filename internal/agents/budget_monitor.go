package agents

import (
	"context"
	"fmt"

	"finsphere/internal/core"
	"finsphere/internal/rules"
	"finsphere/internal/storage"
)

const (
	SuggestionReduceSpending = "reduce_spending"
	SuggestionIncreaseBudget = "increase_budget"
)

// BudgetMonitor compares category spend against the configured caps and
// proposes an adjustment when a category runs over.
type BudgetMonitor struct {
	caps       map[string]float64
	thresholds rules.Thresholds
	now        Clock
}

func NewBudgetMonitor(r rules.Rules, now Clock) *BudgetMonitor {
	return &BudgetMonitor{caps: r.BudgetCaps, thresholds: r.Thresholds, now: orNow(now)}
}

func (m *BudgetMonitor) Name() string { return NameBudgetMonitor }

// Budgets returns the spend of every capped category in the window,
// ordered by category. Categories without a cap are left out.
func (m *BudgetMonitor) Budgets(txs []core.Transaction) []core.Budget {
	spent := make(map[string]int64)
	for _, tx := range txs {
		if tx.Type != core.Expense || !tx.HasCategory() {
			continue
		}
		spent[tx.Category] += tx.Amount.Cents
	}

	var budgets []core.Budget
	for _, c := range core.SortedCategoryAmounts(spent) {
		limit, ok := m.caps[c.Name]
		if !ok {
			continue
		}
		budgets = append(budgets, core.Budget{
			Category:  c.Name,
			Allocated: core.MoneyFromFloat(limit),
			Spent:     c.Amount,
			Period:    fmt.Sprintf("%dd", m.thresholds.BudgetWindowDays),
		})
	}
	return budgets
}

func (m *BudgetMonitor) Execute(ctx context.Context, store storage.TransactionStore) ([]core.AgentAction, error) {
	txs, err := store.Query(ctx, m.thresholds.BudgetWindowDays)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	now := m.now()
	var actions []core.AgentAction
	for _, b := range m.Budgets(txs) {
		limit := b.Allocated.Float64()
		if !b.Spent.GreaterThan(m.thresholds.BudgetAlertRatio * limit) {
			continue
		}

		suggestion := SuggestionIncreaseBudget
		if b.Spent.GreaterThan(m.thresholds.BudgetReduceRatio * limit) {
			suggestion = SuggestionReduceSpending
		}

		actions = append(actions, core.NewAction(
			"budget_"+b.Category,
			NameBudgetMonitor,
			core.ActionBudgetAdjust,
			map[string]any{
				"category":       b.Category,
				"currentSpent":   b.Spent.Float64(),
				"budgetLimit":    limit,
				"overagePercent": overagePercent(b),
				"suggestion":     suggestion,
			},
			true,
			0.9,
			now,
		))
	}
	return actions, nil
}

// overagePercent is how far spend exceeds the cap, in percent. A zero cap
// reports 100.
func overagePercent(b core.Budget) float64 {
	if b.Allocated.Cents == 0 {
		return 100
	}
	return float64(b.Spent.Cents-b.Allocated.Cents) / float64(b.Allocated.Cents) * 100
}
