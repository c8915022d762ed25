// Package rules holds the static tables the agents consult: the keyword
// table used to categorize transactions, monthly budget caps, recurring
// payments, pending invoices and the investment weighting table.
//
// Defaults are compiled in. A YAML file loaded with Load replaces any
// section it defines; sections it omits keep their defaults.
package rules

import (
	"fmt"
	"strings"
	"time"
)

type (
	// CategoryRule maps keywords to a category. Rules are evaluated in
	// slice order and the first match wins.
	CategoryRule struct {
		Name     string   `mapstructure:"name"`
		Keywords []string `mapstructure:"keywords"`
	}

	RecurringPayment struct {
		Name   string  `mapstructure:"name"`
		Amount float64 `mapstructure:"amount"`
		DueDay int     `mapstructure:"due_day"`
	}

	Invoice struct {
		Client  string    `mapstructure:"client"`
		Amount  float64   `mapstructure:"amount"`
		DueDate time.Time `mapstructure:"due_date"`
	}

	// InvestmentTier is included when the monthly surplus is strictly
	// greater than MinSurplus. Weights are applied as given and need not
	// sum to 1.
	InvestmentTier struct {
		Type        string  `mapstructure:"type"`
		Risk        string  `mapstructure:"risk"`
		MinSurplus  float64 `mapstructure:"min_surplus"`
		Weight      float64 `mapstructure:"weight"`
		Description string  `mapstructure:"description"`
	}

	Thresholds struct {
		CategorizeWindowDays int     `mapstructure:"categorize_window_days"`
		CategorizeConfidence float64 `mapstructure:"categorize_confidence"`
		MajorExpense         float64 `mapstructure:"major_expense"`
		BudgetWindowDays     int     `mapstructure:"budget_window_days"`
		BudgetAlertRatio     float64 `mapstructure:"budget_alert_ratio"`
		BudgetReduceRatio    float64 `mapstructure:"budget_reduce_ratio"`
		PaymentApproval      float64 `mapstructure:"payment_approval"`
		PaymentHighPriority  float64 `mapstructure:"payment_high_priority"`
		ReportWindowDays     int     `mapstructure:"report_window_days"`
		InvoiceLeadDays      int     `mapstructure:"invoice_lead_days"`
		InvestmentWindowDays int     `mapstructure:"investment_window_days"`
		InvestmentMinSurplus float64 `mapstructure:"investment_min_surplus"`
		ProjectionYears      int     `mapstructure:"projection_years"`
		ProjectionRate       float64 `mapstructure:"projection_rate"`
	}

	Rules struct {
		Categories        []CategoryRule     `mapstructure:"categories"`
		BudgetCaps        map[string]float64 `mapstructure:"budget_caps"`
		RecurringPayments []RecurringPayment `mapstructure:"recurring_payments"`
		Invoices          []Invoice          `mapstructure:"invoices"`
		InvestmentTiers   []InvestmentTier   `mapstructure:"investment_tiers"`
		Thresholds        Thresholds         `mapstructure:"thresholds"`
	}
)

// Fallback categories assigned when no keyword matches.
const (
	CategoryMajorExpense  = "major_expense"
	CategoryRevenue       = "revenue"
	CategoryMiscellaneous = "miscellaneous"
)

func DefaultThresholds() Thresholds {
	return Thresholds{
		CategorizeWindowDays: 7,
		CategorizeConfidence: 0.85,
		MajorExpense:         1000,
		BudgetWindowDays:     30,
		BudgetAlertRatio:     1.2,
		BudgetReduceRatio:    1.5,
		PaymentApproval:      500,
		PaymentHighPriority:  1000,
		ReportWindowDays:     30,
		InvoiceLeadDays:      3,
		InvestmentWindowDays: 90,
		InvestmentMinSurplus: 1000,
		ProjectionYears:      10,
		ProjectionRate:       0.07,
	}
}

// Default returns the compiled-in tables. Invoice due dates are relative to now.
func Default(now time.Time) Rules {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Rules{
		Categories: []CategoryRule{
			{Name: "food", Keywords: []string{"restaurant", "grocery", "groceries", "food", "cafe", "coffee", "pizza", "burger", "swiggy", "zomato", "starbucks"}},
			{Name: "transport", Keywords: []string{"uber", "lyft", "taxi", "fuel", "petrol", "gas station", "metro", "train", "parking"}},
			{Name: "utilities", Keywords: []string{"electric", "electricity", "water bill", "internet", "broadband", "phone bill", "utility"}},
			{Name: "entertainment", Keywords: []string{"netflix", "spotify", "movie", "cinema", "concert", "game", "prime video"}},
			{Name: "shopping", Keywords: []string{"amazon", "flipkart", "mall", "clothing", "shoes", "shopping", "myntra"}},
			{Name: "health", Keywords: []string{"pharmacy", "doctor", "hospital", "clinic", "medical", "gym", "health"}},
		},
		BudgetCaps: map[string]float64{
			"food":          500,
			"transport":     200,
			"utilities":     300,
			"entertainment": 150,
			"shopping":      400,
			"health":        200,
		},
		RecurringPayments: []RecurringPayment{
			{Name: "Rent", Amount: 1500, DueDay: 1},
			{Name: "Electricity", Amount: 120, DueDay: 5},
			{Name: "Internet", Amount: 60, DueDay: 10},
			{Name: "Car Loan EMI", Amount: 650, DueDay: 15},
			{Name: "Insurance Premium", Amount: 250, DueDay: 20},
		},
		Invoices: []Invoice{
			{Client: "Acme Corp", Amount: 2500, DueDate: today.AddDate(0, 0, 2)},
			{Client: "Globex", Amount: 1200, DueDate: today.AddDate(0, 0, 10)},
			{Client: "Initech", Amount: 800, DueDate: today.AddDate(0, 0, -5)},
		},
		InvestmentTiers: []InvestmentTier{
			{Type: "equity_mutual_funds", Risk: "medium", MinSurplus: 5000, Weight: 0.4, Description: "Diversified equity funds for long-term growth"},
			{Type: "debt_funds", Risk: "low", MinSurplus: 2000, Weight: 0.3, Description: "Short-duration debt funds for stable returns"},
			{Type: "liquid_funds", Risk: "very_low", MinSurplus: 0, Weight: 0.3, Description: "Liquid funds as an accessible reserve"},
		},
		Thresholds: DefaultThresholds(),
	}
}

// Validate collects every problem into a single error.
func (r Rules) Validate() error {
	var errors []string

	for i, c := range r.Categories {
		if strings.TrimSpace(c.Name) == "" {
			errors = append(errors, fmt.Sprintf("category rule %d: name cannot be empty", i))
		}
		if len(c.Keywords) == 0 {
			errors = append(errors, fmt.Sprintf("category rule %q: at least one keyword is required", c.Name))
		}
	}

	for name, limit := range r.BudgetCaps {
		if limit < 0 {
			errors = append(errors, fmt.Sprintf("budget cap %q: must not be negative", name))
		}
	}

	for _, p := range r.RecurringPayments {
		if p.DueDay < 1 || p.DueDay > 31 {
			errors = append(errors, fmt.Sprintf("recurring payment %q: due day %d must be between 1 and 31", p.Name, p.DueDay))
		}
		if p.Amount < 0 {
			errors = append(errors, fmt.Sprintf("recurring payment %q: amount must not be negative", p.Name))
		}
	}

	for _, inv := range r.Invoices {
		if strings.TrimSpace(inv.Client) == "" {
			errors = append(errors, "invoice: client cannot be empty")
		}
		if inv.DueDate.IsZero() {
			errors = append(errors, fmt.Sprintf("invoice %q: due date is required", inv.Client))
		}
	}

	for _, tier := range r.InvestmentTiers {
		if tier.Weight < 0 || tier.Weight > 1 {
			errors = append(errors, fmt.Sprintf("investment tier %q: weight %.2f must be between 0 and 1", tier.Type, tier.Weight))
		}
	}

	t := r.Thresholds
	if t.BudgetAlertRatio <= 0 || t.BudgetReduceRatio < t.BudgetAlertRatio {
		errors = append(errors, fmt.Sprintf("budget ratios invalid: alert %.2f, reduce %.2f", t.BudgetAlertRatio, t.BudgetReduceRatio))
	}
	if t.CategorizeConfidence < 0 || t.CategorizeConfidence > 1 {
		errors = append(errors, fmt.Sprintf("categorize confidence %.2f must be between 0 and 1", t.CategorizeConfidence))
	}
	for name, days := range map[string]int{
		"categorize_window_days": t.CategorizeWindowDays,
		"budget_window_days":     t.BudgetWindowDays,
		"report_window_days":     t.ReportWindowDays,
		"investment_window_days": t.InvestmentWindowDays,
	} {
		if days < 1 {
			errors = append(errors, fmt.Sprintf("%s must be at least 1", name))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("rules validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
