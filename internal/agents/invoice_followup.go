package agents

import (
	"context"
	"fmt"
	"time"

	"finsphere/internal/core"
	"finsphere/internal/rules"
	"finsphere/internal/storage"
)

const (
	InvoiceFollowup      = "followup"
	InvoiceOverdueNotice = "overdue_notice"
)

// InvoiceFollowUp reminds clients of invoices due within the lead time
// and sends overdue notices for the rest.
type InvoiceFollowUp struct {
	invoices []rules.Invoice
	leadDays int
	now      Clock
}

func NewInvoiceFollowUp(r rules.Rules, now Clock) *InvoiceFollowUp {
	return &InvoiceFollowUp{invoices: r.Invoices, leadDays: r.Thresholds.InvoiceLeadDays, now: orNow(now)}
}

func (f *InvoiceFollowUp) Name() string { return NameInvoiceFollowUp }

// DaysUntilDue counts calendar days from now to due; negative when overdue.
func DaysUntilDue(now, due time.Time) int {
	return int(calendarDay(due).Sub(calendarDay(now)).Hours() / 24)
}

func (f *InvoiceFollowUp) Execute(_ context.Context, _ storage.TransactionStore) ([]core.AgentAction, error) {
	now := f.now()

	var actions []core.AgentAction
	for _, inv := range f.invoices {
		days := DaysUntilDue(now, inv.DueDate)
		if days > f.leadDays {
			continue
		}

		kind := InvoiceOverdueNotice
		if days > 0 {
			kind = InvoiceFollowup
		}

		dueDate := inv.DueDate.Format(dateLayout)
		actions = append(actions, core.NewAction(
			fmt.Sprintf("invoice_%s_%s", slug(inv.Client), dueDate),
			NameInvoiceFollowUp,
			core.ActionInvoiceSend,
			map[string]any{
				"client":       inv.Client,
				"amount":       core.MoneyFromFloat(inv.Amount).Float64(),
				"dueDate":      dueDate,
				"action":       kind,
				"daysUntilDue": days,
			},
			false,
			0.9,
			now,
		))
	}
	return actions, nil
}
