package core

import (
	"errors"
	"fmt"
	"maps"
	"time"
)

const (
	ActionCategorize        ActionType = "categorize"
	ActionBudgetAdjust      ActionType = "budget_adjust"
	ActionPaymentExecute    ActionType = "payment_execute"
	ActionReportGenerate    ActionType = "report_generate"
	ActionTaxPrepare        ActionType = "tax_prepare"
	ActionInvoiceSend       ActionType = "invoice_send"
	ActionInvestmentSuggest ActionType = "investment_suggest"
	ActionAlertSend         ActionType = "alert_send"
)

const (
	StatusPending  ActionStatus = "pending"
	StatusApproved ActionStatus = "approved"
	StatusRejected ActionStatus = "rejected"
)

type (
	ActionType   string
	ActionStatus string

	// AgentAction is a unit of work proposed by an agent. Data is shaped by
	// ActionType. ApprovalRequired is fixed at creation and decides routing.
	AgentAction struct {
		ID               string
		AgentName        string
		ActionType       ActionType
		Data             map[string]any
		Timestamp        time.Time
		Status           ActionStatus
		ApprovalRequired bool
		Confidence       float64
	}
)

var ErrInvalidTransition = errors.New("invalid action status transition")

// NewAction builds a pending action. Confidence is clamped to [0,1].
func NewAction(id, agent string, typ ActionType, data map[string]any, approval bool, confidence float64, now time.Time) AgentAction {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return AgentAction{
		ID:               id,
		AgentName:        agent,
		ActionType:       typ,
		Data:             data,
		Timestamp:        now,
		Status:           StatusPending,
		ApprovalRequired: approval,
		Confidence:       confidence,
	}
}

// Transition moves a pending action to approved or rejected. Every other
// edge, including repeating a decision, is refused.
func (a *AgentAction) Transition(to ActionStatus) error {
	if a.Status != StatusPending || (to != StatusApproved && to != StatusRejected) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	return nil
}

func (a AgentAction) IsPending() bool {
	return a.Status == StatusPending
}

// Clone returns a copy whose Data map can be read without sharing the original.
func (a AgentAction) Clone() AgentAction {
	c := a
	if a.Data != nil {
		c.Data = maps.Clone(a.Data)
	}
	return c
}
