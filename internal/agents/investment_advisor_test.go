package agents

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsphere/internal/core"
	"finsphere/internal/rules"
)

// monthlyFlows seeds the same income and expense in each of the last three months.
func monthlyFlows(income, expense float64) []core.Transaction {
	var txs []core.Transaction
	for m, daysAgo := range []int{5, 35, 65} {
		txs = append(txs,
			tx(fmt.Sprintf("in-%d", m), daysAgo, income, core.Income, "Salary"),
			tx(fmt.Sprintf("out-%d", m), daysAgo, expense, core.Expense, "Rent"),
		)
	}
	return txs
}

func tierTypes(s []Suggestion) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = v.Type
	}
	return out
}

func TestInvestmentAdvisor_Tiers(t *testing.T) {
	tests := []struct {
		name    string
		income  float64
		expense float64
		want    []string
	}{
		{name: "surplus at 1000 is skipped", income: 3000, expense: 2000},
		{name: "deficit is skipped", income: 1000, expense: 2000},
		{name: "liquid only above 1000", income: 3500, expense: 2000, want: []string{"liquid_funds"}},
		{name: "2000 exactly is liquid only", income: 4000, expense: 2000, want: []string{"liquid_funds"}},
		{name: "5000 exactly excludes equity", income: 6000, expense: 1000, want: []string{"debt_funds", "liquid_funds"}},
		{name: "above 5000 includes equity", income: 7000, expense: 1000, want: []string{"equity_mutual_funds", "debt_funds", "liquid_funds"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewInvestmentAdvisor(rules.Default(testNow), clock)
			actions, err := a.Execute(context.Background(), newStore(monthlyFlows(tt.income, tt.expense)...))
			require.NoError(t, err)

			if tt.want == nil {
				assert.Empty(t, actions)
				return
			}
			require.Len(t, actions, 1)
			action := actions[0]
			assert.Equal(t, "invest_20250615", action.ID)
			assert.True(t, action.ApprovalRequired)
			assert.Equal(t, core.ActionInvestmentSuggest, action.ActionType)
			assert.InDelta(t, tt.income-tt.expense, action.Data["monthlySurplus"], 1e-9)

			suggestions, ok := action.Data["suggestions"].([]Suggestion)
			require.True(t, ok)
			assert.Equal(t, tt.want, tierTypes(suggestions))
			assert.NotEmpty(t, action.Data["rationale"])
			assert.Contains(t, action.Data, "projection")
			assert.Equal(t, 10, action.Data["projectionYears"])
		})
	}
}

func TestInvestmentAdvisor_WeightsAreNotNormalised(t *testing.T) {
	a := NewInvestmentAdvisor(rules.Default(testNow), clock)

	s := a.Suggestions(1500)
	require.Len(t, s, 1)
	assert.InDelta(t, 450, s[0].Amount, 1e-9, "liquid tier keeps its 0.3 weight")

	s = a.Suggestions(5000)
	require.Len(t, s, 2)
	assert.InDelta(t, 3000, s[0].Amount+s[1].Amount, 1e-9)
}

func TestInvestmentAdvisor_CustomTierTable(t *testing.T) {
	r := rules.Default(testNow)
	r.InvestmentTiers = []rules.InvestmentTier{
		{Type: "index_fund", Risk: "medium", MinSurplus: 0, Weight: 1},
	}
	r.Thresholds.ProjectionYears = 1
	r.Thresholds.ProjectionRate = 0

	actions, err := NewInvestmentAdvisor(r, clock).Execute(context.Background(), newStore(monthlyFlows(4000, 1000)...))
	require.NoError(t, err)
	require.Len(t, actions, 1)

	s := actions[0].Data["suggestions"].([]Suggestion)
	require.Len(t, s, 1)
	assert.InDelta(t, 3000, s[0].Amount, 1e-9)
	assert.InDelta(t, 36000, actions[0].Data["projection"], 1e-6)
	assert.Equal(t, 1, actions[0].Data["projectionYears"])
}

func TestInvestmentAdvisor_IgnoresTransactionsOutsideWindow(t *testing.T) {
	txs := monthlyFlows(1000, 900)
	txs = append(txs, tx("bonus-old", 120, 90000, core.Income, "Bonus"))

	actions, err := NewInvestmentAdvisor(rules.Default(testNow), clock).Execute(context.Background(), newStore(txs...))
	require.NoError(t, err)
	assert.Empty(t, actions)
}
