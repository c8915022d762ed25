package agents

import (
	"context"
	"fmt"

	"finsphere/internal/core"
	"finsphere/internal/rules"
	"finsphere/internal/storage"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
)

// PaymentScheduler proposes the recurring payments due today. A payment
// matches only when its due day equals today's day of month, so a due day
// of 31 is skipped in shorter months.
type PaymentScheduler struct {
	payments   []rules.RecurringPayment
	thresholds rules.Thresholds
	now        Clock
}

func NewPaymentScheduler(r rules.Rules, now Clock) *PaymentScheduler {
	return &PaymentScheduler{payments: r.RecurringPayments, thresholds: r.Thresholds, now: orNow(now)}
}

func (p *PaymentScheduler) Name() string { return NamePaymentScheduler }

func (p *PaymentScheduler) Execute(_ context.Context, _ storage.TransactionStore) ([]core.AgentAction, error) {
	now := p.now()
	dueDate := now.Format(dateLayout)

	var actions []core.AgentAction
	for _, payment := range p.payments {
		if payment.DueDay != now.Day() {
			continue
		}

		amount := core.MoneyFromFloat(payment.Amount)
		priority := PriorityMedium
		if amount.GreaterThan(p.thresholds.PaymentHighPriority) {
			priority = PriorityHigh
		}

		actions = append(actions, core.NewAction(
			fmt.Sprintf("payment_%s_%s", slug(payment.Name), dueDate),
			NamePaymentScheduler,
			core.ActionPaymentExecute,
			map[string]any{
				"paymentName": payment.Name,
				"amount":      amount.Float64(),
				"dueDate":     dueDate,
				"priority":    priority,
			},
			amount.GreaterThan(p.thresholds.PaymentApproval),
			1.0,
			now,
		))
	}
	return actions, nil
}
