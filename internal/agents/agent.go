// Package agents contains the six agents that inspect the transaction
// ledger and the rule tables and propose actions. Agents keep no state
// between runs; everything they need is injected at construction.
package agents

import (
	"context"
	"strings"
	"time"

	"finsphere/internal/core"
	"finsphere/internal/rules"
	"finsphere/internal/storage"
)

const (
	NameCategorizer       = "categorizer"
	NameBudgetMonitor     = "budget_monitor"
	NamePaymentScheduler  = "payment_scheduler"
	NameReporter          = "reporter"
	NameInvoiceFollowUp   = "invoice_followup"
	NameInvestmentAdvisor = "investment_advisor"
)

// Agent proposes actions from the store and its rules. Execute runs to
// completion; a returned error means the agent produced nothing.
type Agent interface {
	Name() string
	Execute(ctx context.Context, store storage.TransactionStore) ([]core.AgentAction, error)
}

// Clock returns the current time. Agents default to time.Now.
type Clock func() time.Time

// Default builds the standard agent line-up in cycle order.
func Default(r rules.Rules, now Clock) []Agent {
	return []Agent{
		NewCategorizer(r, now),
		NewBudgetMonitor(r, now),
		NewPaymentScheduler(r, now),
		NewReporter(r, now),
		NewInvoiceFollowUp(r, now),
		NewInvestmentAdvisor(r, now),
	}
}

func orNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// calendarDay truncates t to midnight UTC of its calendar date so that
// day differences are not skewed by time zones or DST.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// slug lower-cases s and joins its words with underscores for use in action ids.
func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}
