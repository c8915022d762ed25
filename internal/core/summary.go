package core

import "sort"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// CashFlowSummary is the aggregate of a transaction window.
type CashFlowSummary struct {
	PeriodDays         int
	TotalIncome        Money
	TotalExpenses      Money
	ByCategory         []CategoryAmount
	TransactionCount   int
	ExpenseCount       int
	AverageTransaction float64 // mean expense size in major units, 0 with no expenses
}

// NetCashFlow is income minus expenses.
func (s CashFlowSummary) NetCashFlow() Money {
	return Money{Cents: s.TotalIncome.Cents - s.TotalExpenses.Cents}
}

// CategoryMap returns the breakdown keyed by category in major units.
func (s CashFlowSummary) CategoryMap() map[string]float64 {
	m := make(map[string]float64, len(s.ByCategory))
	for _, c := range s.ByCategory {
		m[c.Name] = c.Amount.Float64()
	}
	return m
}

// SortedCategoryAmounts turns a category→cents map into a slice ordered by name.
func SortedCategoryAmounts(sums map[string]int64) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(sums))
	for name, cents := range sums {
		out = append(out, CategoryAmount{Name: name, Amount: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
