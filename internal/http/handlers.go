package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"finsphere/internal/core"
	"finsphere/internal/log"
	"finsphere/internal/planning"
)

const defaultSinceDays = 30

func (s *Server) handleRunCycle(w http.ResponseWriter, r *http.Request) {
	actions := s.orch.RunCycle(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"actions": toActionResponses(actions),
		"pending": len(s.orch.PendingApprovals()),
	})
}

func (s *Server) handlePendingApprovals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toActionResponses(s.orch.PendingApprovals()))
}

// handleApprove schedules execution and answers 202. With ?wait=true it
// blocks until the action has run and reports the outcome instead.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	exec, ok := s.orch.Approve(r.Context(), id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no pending action %q", id))
		return
	}

	if r.URL.Query().Get("wait") != "true" {
		writeJSON(w, http.StatusAccepted, toActionResponse(exec.Action))
		return
	}

	if err := exec.Wait(r.Context()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Approved action failed", log.FieldActionID, id, log.FieldError, err)
		writeJSON(w, http.StatusOK, map[string]any{
			"action":   toActionResponse(exec.Action),
			"executed": false,
			"error":    err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"action":   toActionResponse(exec.Action),
		"executed": true,
	})
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.orch.Reject(r.Context(), id) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no pending action %q", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	sinceDays := defaultSinceDays
	if raw := r.URL.Query().Get("since_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "since_days must be a non-negative integer")
			return
		}
		sinceDays = n
	}

	txs, err := s.store.Query(r.Context(), sinceDays)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to query transactions", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to query transactions")
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
		return
	}

	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid transaction: %v", err))
		return
	}

	if err := s.store.Upsert(r.Context(), tx); err != nil {
		if errors.Is(err, core.ErrInvalidTransaction) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to upsert transaction", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleDebtPayoff(w http.ResponseWriter, r *http.Request) {
	var p queryParams
	balance := p.number(r, "balance")
	apr := p.number(r, "apr")
	payment := p.number(r, "payment")
	if p.err != nil {
		writeError(w, http.StatusBadRequest, p.err.Error())
		return
	}

	res, err := planning.PayoffSchedule(balance, apr, payment)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"months":        res.Months,
		"totalInterest": res.TotalInterest,
		"payable":       res.Payable,
	})
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	var p queryParams
	monthly := p.number(r, "monthly")
	rate := p.number(r, "rate")
	years := p.integer(r, "years")
	if p.err != nil {
		writeError(w, http.StatusBadRequest, p.err.Error())
		return
	}

	res, err := planning.FutureValue(monthly, rate, years)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"futureValue":   res.FutureValue,
		"contributions": res.Contributions,
		"growth":        res.Growth,
	})
}

func (s *Server) handleGoal(w http.ResponseWriter, r *http.Request) {
	var p queryParams
	amount := p.number(r, "amount")
	months := p.integer(r, "months")
	savings := p.number(r, "savings")
	if p.err != nil {
		writeError(w, http.StatusBadRequest, p.err.Error())
		return
	}

	res, err := planning.GoalFeasibility(amount, months, savings)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"requiredMonthly":  res.RequiredMonthly,
		"availableMonthly": res.AvailableMonthly,
		"feasible":         res.Feasible,
		"realisticMonths":  res.RealisticMonths,
	})
}

// queryParams parses required numeric query parameters, keeping the first error.
type queryParams struct {
	err error
}

func (p *queryParams) raw(r *http.Request, name string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v := r.URL.Query().Get(name)
	if v == "" {
		p.err = fmt.Errorf("missing query parameter %q", name)
		return "", false
	}
	return v, true
}

func (p *queryParams) number(r *http.Request, name string) float64 {
	v, ok := p.raw(r, name)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		p.err = fmt.Errorf("query parameter %q must be a finite number", name)
	}
	return f
}

func (p *queryParams) integer(r *http.Request, name string) int {
	v, ok := p.raw(r, name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("query parameter %q must be an integer", name)
	}
	return n
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s must be a YYYY-MM-DD date", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s exceeds %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
