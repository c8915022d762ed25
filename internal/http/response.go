package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"finsphere/internal/core"
)

const dateLayout = "2006-01-02"

type errorResponse struct {
	Error string `json:"error"`
}

type actionResponse struct {
	ID               string         `json:"id"`
	AgentName        string         `json:"agentName"`
	ActionType       string         `json:"actionType"`
	Data             map[string]any `json:"data"`
	Timestamp        time.Time      `json:"timestamp"`
	Status           string         `json:"status"`
	ApprovalRequired bool           `json:"approvalRequired"`
	Confidence       float64        `json:"confidence"`
}

type transactionResponse struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Merchant    string  `json:"merchant,omitempty"`
	Category    string  `json:"category,omitempty"`
	Type        string  `json:"type"`
	Account     string  `json:"account"`
}

// transactionRequest is the PUT body; Amount stays a string so it goes
// through the same decimal parser as seed files.
type transactionRequest struct {
	ID          string `json:"id" validate:"required,max=64"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Amount      string `json:"amount" validate:"required,max=20"`
	Description string `json:"description" validate:"max=200"`
	Merchant    string `json:"merchant" validate:"max=100"`
	Category    string `json:"category" validate:"max=50"`
	Type        string `json:"type" validate:"required,oneof=expense income transfer"`
	Account     string `json:"account" validate:"max=50"`
}

func (r transactionRequest) toTransaction() (core.Transaction, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	cents, err := core.ParseDecimalToCents(r.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          r.ID,
		Date:        date,
		Amount:      core.Money{Cents: cents},
		Description: r.Description,
		Merchant:    r.Merchant,
		Category:    r.Category,
		Type:        core.TransactionType(r.Type),
		Account:     r.Account,
	}, nil
}

func toActionResponse(a core.AgentAction) actionResponse {
	data := a.Data
	if data == nil {
		data = map[string]any{}
	}
	return actionResponse{
		ID:               a.ID,
		AgentName:        a.AgentName,
		ActionType:       string(a.ActionType),
		Data:             data,
		Timestamp:        a.Timestamp,
		Status:           string(a.Status),
		ApprovalRequired: a.ApprovalRequired,
		Confidence:       a.Confidence,
	}
}

func toActionResponses(actions []core.AgentAction) []actionResponse {
	out := make([]actionResponse, 0, len(actions))
	for _, a := range actions {
		out = append(out, toActionResponse(a))
	}
	return out
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Date:        tx.Date.Format(dateLayout),
		Amount:      tx.Amount.Float64(),
		Description: tx.Description,
		Merchant:    tx.Merchant,
		Category:    tx.Category,
		Type:        string(tx.Type),
		Account:     tx.AccountOrDefault(),
	}
}

// writeJSON encodes v before touching the response so an encoding failure
// still produces a 500 with a body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
