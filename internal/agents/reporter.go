package agents

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"finsphere/internal/core"
	"finsphere/internal/rules"
	"finsphere/internal/storage"
)

// CategoryUncategorized groups expenses no agent has labelled yet.
const CategoryUncategorized = "uncategorized"

const dateLayout = "2006-01-02"

// Reporter emits one cash-flow summary per day.
type Reporter struct {
	days int
	now  Clock
}

func NewReporter(r rules.Rules, now Clock) *Reporter {
	return &Reporter{days: r.Thresholds.ReportWindowDays, now: orNow(now)}
}

func (r *Reporter) Name() string { return NameReporter }

// Summarize aggregates txs. Transfers count towards TransactionCount only.
func Summarize(txs []core.Transaction, periodDays int) core.CashFlowSummary {
	s := core.CashFlowSummary{PeriodDays: periodDays, TransactionCount: len(txs)}
	byCategory := make(map[string]int64)
	var expenses []float64

	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case core.Expense:
			s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
			category := tx.Category
			if category == "" {
				category = CategoryUncategorized
			}
			byCategory[category] += tx.Amount.Cents
			expenses = append(expenses, tx.Amount.Float64())
		}
	}

	s.ByCategory = core.SortedCategoryAmounts(byCategory)
	s.ExpenseCount = len(expenses)
	if len(expenses) > 0 {
		s.AverageTransaction = stat.Mean(expenses, nil)
	}
	return s
}

func (r *Reporter) Execute(ctx context.Context, store storage.TransactionStore) ([]core.AgentAction, error) {
	txs, err := store.Query(ctx, r.days)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	now := r.now()
	s := Summarize(txs, r.days)
	action := core.NewAction(
		"report_"+now.Format("20060102"),
		NameReporter,
		core.ActionReportGenerate,
		map[string]any{
			"period":             fmt.Sprintf("last_%d_days", s.PeriodDays),
			"totalIncome":        s.TotalIncome.Float64(),
			"totalExpenses":      s.TotalExpenses.Float64(),
			"netCashFlow":        s.NetCashFlow().Float64(),
			"categoryBreakdown":  s.CategoryMap(),
			"transactionCount":   s.TransactionCount,
			"averageTransaction": s.AverageTransaction,
		},
		false,
		1.0,
		now,
	)
	return []core.AgentAction{action}, nil
}
