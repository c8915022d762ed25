package amqp

import (
	"encoding/json"
	"time"

	"finsphere/internal/core"
)

// ActionExecutedMessage announces that an agent action has been carried out.
type ActionExecutedMessage struct {
	ActionID   string         `json:"action_id"`
	AgentName  string         `json:"agent_name"`
	ActionType string         `json:"action_type"`
	Status     string         `json:"status"`
	Data       map[string]any `json:"data,omitempty"`
	Confidence float64        `json:"confidence"`
	ProposedAt time.Time      `json:"proposed_at"`
	ExecutedAt time.Time      `json:"executed_at"`
}

func NewActionExecutedMessage(a core.AgentAction, executedAt time.Time) *ActionExecutedMessage {
	return &ActionExecutedMessage{
		ActionID:   a.ID,
		AgentName:  a.AgentName,
		ActionType: string(a.ActionType),
		Status:     string(a.Status),
		Data:       a.Data,
		Confidence: a.Confidence,
		ProposedAt: a.Timestamp,
		ExecutedAt: executedAt,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ActionExecutedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
