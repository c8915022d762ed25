package rules

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const dateLayout = "2006-01-02"

// Load reads a rules file (YAML, JSON or TOML by extension) and overlays it
// on the defaults. An empty path returns the defaults unchanged.
func Load(path string, now time.Time) (Rules, error) {
	def := Default(now)
	if path == "" {
		return def, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Rules{}, fmt.Errorf("read rules file %s: %w", path, err)
	}

	var loaded Rules
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(dateLayout),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&loaded, hook); err != nil {
		return Rules{}, fmt.Errorf("decode rules file %s: %w", path, err)
	}

	merged := overlay(def, loaded, v)
	if err := merged.Validate(); err != nil {
		return Rules{}, err
	}
	return merged, nil
}

// overlay keeps default sections the file does not set.
func overlay(def, loaded Rules, v *viper.Viper) Rules {
	out := def
	if v.IsSet("categories") {
		out.Categories = loaded.Categories
	}
	if v.IsSet("budget_caps") {
		out.BudgetCaps = loaded.BudgetCaps
	}
	if v.IsSet("recurring_payments") {
		out.RecurringPayments = loaded.RecurringPayments
	}
	if v.IsSet("invoices") {
		out.Invoices = loaded.Invoices
	}
	if v.IsSet("investment_tiers") {
		out.InvestmentTiers = loaded.InvestmentTiers
	}

	t := &out.Thresholds
	lt := loaded.Thresholds
	setInt := func(key string, dst *int, val int) {
		if v.IsSet("thresholds." + key) {
			*dst = val
		}
	}
	setFloat := func(key string, dst *float64, val float64) {
		if v.IsSet("thresholds." + key) {
			*dst = val
		}
	}
	setInt("categorize_window_days", &t.CategorizeWindowDays, lt.CategorizeWindowDays)
	setFloat("categorize_confidence", &t.CategorizeConfidence, lt.CategorizeConfidence)
	setFloat("major_expense", &t.MajorExpense, lt.MajorExpense)
	setInt("budget_window_days", &t.BudgetWindowDays, lt.BudgetWindowDays)
	setFloat("budget_alert_ratio", &t.BudgetAlertRatio, lt.BudgetAlertRatio)
	setFloat("budget_reduce_ratio", &t.BudgetReduceRatio, lt.BudgetReduceRatio)
	setFloat("payment_approval", &t.PaymentApproval, lt.PaymentApproval)
	setFloat("payment_high_priority", &t.PaymentHighPriority, lt.PaymentHighPriority)
	setInt("report_window_days", &t.ReportWindowDays, lt.ReportWindowDays)
	setInt("invoice_lead_days", &t.InvoiceLeadDays, lt.InvoiceLeadDays)
	setInt("investment_window_days", &t.InvestmentWindowDays, lt.InvestmentWindowDays)
	setFloat("investment_min_surplus", &t.InvestmentMinSurplus, lt.InvestmentMinSurplus)
	setInt("projection_years", &t.ProjectionYears, lt.ProjectionYears)
	setFloat("projection_rate", &t.ProjectionRate, lt.ProjectionRate)

	return out
}
