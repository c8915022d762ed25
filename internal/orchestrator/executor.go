package orchestrator

import (
	"context"
	"fmt"
	"time"

	"finsphere/internal/core"
	"finsphere/internal/log"
)

// Handler carries out one approved action.
type Handler func(ctx context.Context, a core.AgentAction) error

// EventPublisher announces executed actions to other services.
type EventPublisher interface {
	PublishActionExecuted(ctx context.Context, a core.AgentAction, executedAt time.Time) error
}

// Executor dispatches approved actions to a handler by action type. Types
// without a handler are logged and otherwise ignored.
type Executor struct {
	handlers  map[core.ActionType]Handler
	publisher EventPublisher
	logger    *log.Logger
	now       func() time.Time
}

// NewExecutor returns an executor with the default handlers. publisher may be nil.
func NewExecutor(publisher EventPublisher, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	e := &Executor{
		handlers:  make(map[core.ActionType]Handler),
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentExecutor),
		now:       time.Now,
	}
	e.handlers[core.ActionPaymentExecute] = e.executePayment
	e.handlers[core.ActionReportGenerate] = e.generateReport
	e.handlers[core.ActionAlertSend] = e.sendAlert
	return e
}

// Handle registers h for typ, replacing any existing handler. Register
// handlers before the executor is shared.
func (e *Executor) Handle(typ core.ActionType, h Handler) {
	e.handlers[typ] = h
}

// Execute runs the handler for a. A publish failure is logged and does
// not fail the execution.
func (e *Executor) Execute(ctx context.Context, a core.AgentAction) error {
	h, ok := e.handlers[a.ActionType]
	if !ok {
		h = e.applyGeneric
	}
	if err := h(ctx, a); err != nil {
		return fmt.Errorf("execute action %s: %w", a.ID, err)
	}

	if e.publisher == nil {
		e.logger.DebugContext(ctx, "Event publisher not configured, skipping event", log.FieldActionID, a.ID)
		return nil
	}
	if err := e.publisher.PublishActionExecuted(ctx, a, e.now()); err != nil {
		fields := log.NewFields().WithAction(a).WithOperation(log.OpPublish).WithError(err)
		e.logger.ErrorContext(ctx, "Failed to publish action executed event", fields.ToSlice()...)
	}
	return nil
}

func (e *Executor) executePayment(ctx context.Context, a core.AgentAction) error {
	e.logger.InfoContext(ctx, "Executing payment",
		log.FieldActionID, a.ID,
		"payment", a.Data["paymentName"],
		"amount", a.Data["amount"],
		"priority", a.Data["priority"])
	return nil
}

func (e *Executor) generateReport(ctx context.Context, a core.AgentAction) error {
	e.logger.InfoContext(ctx, "Generating report",
		log.FieldActionID, a.ID,
		"period", a.Data["period"],
		"net_cash_flow", a.Data["netCashFlow"])
	return nil
}

func (e *Executor) sendAlert(ctx context.Context, a core.AgentAction) error {
	e.logger.InfoContext(ctx, "Sending alert", log.FieldActionID, a.ID, log.FieldAgent, a.AgentName)
	return nil
}

func (e *Executor) applyGeneric(ctx context.Context, a core.AgentAction) error {
	e.logger.InfoContext(ctx, "Action applied", log.NewFields().WithAction(a).ToSlice()...)
	return nil
}
