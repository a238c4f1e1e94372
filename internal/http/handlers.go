package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"copilote/internal/core"
)

// Wire types. Amounts travel as strings so clients never lose cents to
// float rounding; "13,99" and "13.99" are both accepted on input.
type (
	addTransactionRequest struct {
		Date   string `json:"date"`
		Label  string `json:"label"`
		Amount string `json:"amount"`
	}

	recategorizeRequest struct {
		Category string `json:"category"`
	}

	createBudgetRequest struct {
		SavingsGoal string `json:"savings_goal"`
	}

	learnRuleRequest struct {
		Keyword  string `json:"keyword"`
		Category string `json:"category"`
	}

	transactionJSON struct {
		ID           string `json:"id"`
		Date         string `json:"date"`
		Label        string `json:"label"`
		CleanedLabel string `json:"cleaned_label,omitempty"`
		Amount       string `json:"amount"`
		Category     string `json:"category"`
		Subcategory  string `json:"subcategory,omitempty"`
		Method       string `json:"method"`
		NeedsReview  bool   `json:"needs_review"`
	}

	envelopeJSON struct {
		Category      string `json:"category"`
		ObservedSpend string `json:"observed_spend"`
		Proposed      string `json:"proposed"`
		Remaining     string `json:"remaining"`
	}

	budgetJSON struct {
		Envelopes      []envelopeJSON `json:"envelopes"`
		IncomeObserved string         `json:"income_observed"`
		FixedObserved  string         `json:"fixed_observed"`
		TotalRemaining string         `json:"total_remaining"`
		DailyRemaining string         `json:"daily_remaining"`
		Advisory       string         `json:"advisory"`
		PeriodDays     int            `json:"period_days"`
		CreatedAt      string         `json:"created_at"`
	}

	ruleJSON struct {
		Keyword     string `json:"keyword"`
		Label       string `json:"label,omitempty"`
		Category    string `json:"category"`
		Subcategory string `json:"subcategory,omitempty"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:           tx.ID,
		Date:         tx.Date.Format("2006-01-02"),
		Label:        tx.RawLabel,
		CleanedLabel: tx.CleanedLabel,
		Amount:       tx.Amount.StringFixed(2),
		Category:     string(tx.Category),
		Subcategory:  tx.Subcategory,
		Method:       string(tx.Method),
		NeedsReview:  tx.NeedsReview(),
	}
}

func toBudgetJSON(b *core.BudgetProposal) budgetJSON {
	out := budgetJSON{
		IncomeObserved: b.IncomeObserved.StringFixed(2),
		FixedObserved:  b.FixedObserved.StringFixed(2),
		TotalRemaining: b.TotalRemaining.StringFixed(2),
		DailyRemaining: b.DailyRemaining.StringFixed(2),
		Advisory:       b.Advisory,
		PeriodDays:     b.PeriodDays,
		CreatedAt:      b.CreatedAt.UTC().Format(time.RFC3339),
	}
	for _, env := range b.Envelopes {
		out.Envelopes = append(out.Envelopes, envelopeJSON{
			Category:      string(env.Category),
			ObservedSpend: env.ObservedSpend.StringFixed(2),
			Proposed:      env.Proposed.StringFixed(2),
			Remaining:     env.Remaining.StringFixed(2),
		})
	}
	return out
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req addTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	tx, err := s.coach.AddTransaction(r.Context(), currentUser(r), core.TransactionDraft{
		Date:   core.Date{Time: date},
		Label:  req.Label,
		Amount: amount,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionJSON(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		txs []core.Transaction
		err error
	)
	if r.URL.Query().Get("review") == "true" {
		txs, err = s.coach.NeedingReview(r.Context(), currentUser(r))
	} else {
		txs, err = s.coach.ListTransactions(r.Context(), currentUser(r))
	}
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionJSON(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecategorize(w http.ResponseWriter, r *http.Request) {
	var req recategorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx, err := s.coach.Recategorize(r.Context(), currentUser(r), r.PathValue("id"), core.Category(req.Category))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionJSON(tx))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	goal, err := parseSavingsGoal(req.SavingsGoal)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid savings goal")
		return
	}

	proposal, err := s.coach.CreateBudget(r.Context(), currentUser(r), goal)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBudgetJSON(proposal))
}

func (s *Server) handleCurrentBudget(w http.ResponseWriter, r *http.Request) {
	proposal, err := s.coach.CurrentBudget(r.Context(), currentUser(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetJSON(proposal))
}

func (s *Server) handleLearnRule(w http.ResponseWriter, r *http.Request) {
	var req learnRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.coach.LearnRule(r.Context(), currentUser(r), req.Keyword, core.Category(req.Category)); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.coach.Rules(r.Context(), currentUser(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	out := make([]ruleJSON, 0, len(rules))
	for _, rule := range rules {
		out = append(out, ruleJSON{
			Keyword:     rule.Keyword,
			Label:       rule.Label,
			Category:    string(rule.Category),
			Subcategory: rule.Subcategory,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// parseSavingsGoal accepts both separators like core.ParseAmount, but a
// missing or zero goal is fine: not everyone saves every month.
func parseSavingsGoal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil || d.IsNegative() {
		return decimal.Zero, core.ErrInvalidAmount
	}
	return d, nil
}

// writeDomainError maps domain errors to HTTP statuses. Unknown errors are
// logged and reported as 500 without leaking detail.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrEmptyLabel),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidCategory):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrIncompleteCategorization):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "Request failed",
			"path", r.URL.Path,
			"error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
