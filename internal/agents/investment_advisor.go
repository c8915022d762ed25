package agents

import (
	"context"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/floats"

	"finsphere/internal/core"
	"finsphere/internal/planning"
	"finsphere/internal/rules"
	"finsphere/internal/storage"
)

// Suggestion is one allocation of the monthly surplus.
type Suggestion struct {
	Type        string  `json:"type"`
	Risk        string  `json:"risk"`
	Amount      float64 `json:"amount"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description"`
}

// InvestmentAdvisor suggests how to allocate a sustained monthly surplus
// using the configured tier table. Tier weights are applied as given.
type InvestmentAdvisor struct {
	tiers      []rules.InvestmentTier
	thresholds rules.Thresholds
	now        Clock
}

func NewInvestmentAdvisor(r rules.Rules, now Clock) *InvestmentAdvisor {
	return &InvestmentAdvisor{tiers: r.InvestmentTiers, thresholds: r.Thresholds, now: orNow(now)}
}

func (a *InvestmentAdvisor) Name() string { return NameInvestmentAdvisor }

// MonthlySurplus averages income minus expenses over the window, counting
// 30 days as a month.
func (a *InvestmentAdvisor) MonthlySurplus(txs []core.Transaction) float64 {
	var income, expenses []float64
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			income = append(income, tx.Amount.Float64())
		case core.Expense:
			expenses = append(expenses, tx.Amount.Float64())
		}
	}

	months := float64(a.thresholds.InvestmentWindowDays) / 30
	return floats.Sum(income)/months - floats.Sum(expenses)/months
}

// Suggestions returns the tiers whose minimum the surplus strictly exceeds.
func (a *InvestmentAdvisor) Suggestions(surplus float64) []Suggestion {
	var out []Suggestion
	for _, tier := range a.tiers {
		if surplus <= tier.MinSurplus {
			continue
		}
		out = append(out, Suggestion{
			Type:        tier.Type,
			Risk:        tier.Risk,
			Amount:      tier.Weight * surplus,
			Weight:      tier.Weight,
			Description: tier.Description,
		})
	}
	return out
}

func (a *InvestmentAdvisor) Execute(ctx context.Context, store storage.TransactionStore) ([]core.AgentAction, error) {
	txs, err := store.Query(ctx, a.thresholds.InvestmentWindowDays)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	surplus := a.MonthlySurplus(txs)
	if surplus <= a.thresholds.InvestmentMinSurplus {
		return nil, nil
	}

	suggestions := a.Suggestions(surplus)
	amounts := make([]float64, len(suggestions))
	for i, s := range suggestions {
		amounts[i] = s.Amount
	}
	invested := floats.Sum(amounts)

	data := map[string]any{
		"monthlySurplus": surplus,
		"suggestions":    suggestions,
		"rationale": fmt.Sprintf("Average monthly surplus of %.2f over the last %d days; %d allocation(s) totalling %.2f per month.",
			surplus, a.thresholds.InvestmentWindowDays, len(suggestions), invested),
	}

	projection, err := planning.FutureValue(invested, a.thresholds.ProjectionRate, a.thresholds.ProjectionYears)
	if err != nil {
		slog.WarnContext(ctx, "Skipping investment projection", "error", err)
	} else {
		data["projection"] = projection.FutureValue
		data["projectionYears"] = a.thresholds.ProjectionYears
	}

	now := a.now()
	return []core.AgentAction{core.NewAction(
		"invest_"+now.Format("20060102"),
		NameInvestmentAdvisor,
		core.ActionInvestmentSuggest,
		data,
		true,
		0.75,
		now,
	)}, nil
}
