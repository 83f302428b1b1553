// Package api serves the dashboard JSON API over the debtor repository.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/overdue"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/repository"
)

// Handler serves the dashboard endpoints.
type Handler struct {
	repo     *repository.Repository
	logger   *slog.Logger
	notifier *overdue.Notifier
	now      func() time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithNotifier sets the webhook used by POST /api/overdue/check.
func WithNotifier(n *overdue.Notifier) HandlerOption {
	return func(h *Handler) {
		h.notifier = n
	}
}

// NewHandler creates a Handler. A nil logger uses slog.Default().
func NewHandler(repo *repository.Repository, logger *slog.Logger, opts ...HandlerOption) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{repo: repo, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterDebtorRequest is the POST /api/debtors body.
type RegisterDebtorRequest struct {
	Name         string          `json:"name"`
	Installments int             `json:"installments"`
	Amount       decimal.Decimal `json:"amount"`
	FirstDue     string          `json:"first_due"`
}

// AddInstallmentRequest is the POST /api/debtors/{name}/installments body.
type AddInstallmentRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	DueDate string          `json:"due_date"`
}

// ReconcileRequest is the POST /api/rows/reconcile body.
type ReconcileRequest struct {
	Original []ledger.Row `json:"original"`
	Edited   []ledger.Row `json:"edited"`
}

// ReconcileResponse reports how many rows were applied.
type ReconcileResponse struct {
	Changed int `json:"changed"`
}

// ListDebtors handles GET /api/debtors.
func (h *Handler) ListDebtors(w http.ResponseWriter, r *http.Request) {
	doc, err := h.repo.FetchAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// RegisterDebtor handles POST /api/debtors.
// @Summary Register a debtor
// @Description Register a debtor with installments due every 30 days from first_due
// @Tags debtors
// @Accept json
// @Produce json
// @Param request body RegisterDebtorRequest true "Debtor schedule"
// @Success 201 {object} ledger.Debtor
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /debtors [post]
func (h *Handler) RegisterDebtor(w http.ResponseWriter, r *http.Request) {
	var req RegisterDebtorRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.repo.RegisterDebtor(r.Context(), req.Name, req.Installments, req.Amount, req.FirstDue); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeDebtor(w, r, req.Name, http.StatusCreated)
}

// RemoveDebtor handles DELETE /api/debtors/{name}.
func (h *Handler) RemoveDebtor(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.RemoveDebtor(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddInstallment handles POST /api/debtors/{name}/installments.
func (h *Handler) AddInstallment(w http.ResponseWriter, r *http.Request) {
	var req AddInstallmentRequest
	if !decode(w, r, &req) {
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.repo.AddInstallment(r.Context(), name, req.Amount, req.DueDate); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeDebtor(w, r, name, http.StatusCreated)
}

// RemoveInstallment handles DELETE /api/debtors/{name}/installments/{dueDate}.
func (h *Handler) RemoveInstallment(w http.ResponseWriter, r *http.Request) {
	err := h.repo.RemoveInstallment(r.Context(), chi.URLParam(r, "name"), chi.URLParam(r, "dueDate"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRows handles GET /api/rows?debtor=.
func (h *Handler) ListRows(w http.ResponseWriter, r *http.Request) {
	doc, err := h.repo.FetchAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ledger.FilterRows(ledger.Rows(doc), r.URL.Query().Get("debtor")))
}

// Reconcile handles POST /api/rows/reconcile.
// @Summary Apply edited rows
// @Description Write the rows whose amount, due date or paid flag changed
// @Tags rows
// @Accept json
// @Produce json
// @Param request body ReconcileRequest true "Rows before and after editing"
// @Success 200 {object} ReconcileResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /rows/reconcile [post]
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if !decode(w, r, &req) {
		return
	}

	changed, err := h.repo.Reconcile(r.Context(), req.Original, req.Edited)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReconcileResponse{Changed: changed})
}

// Summary handles GET /api/summary?year=&month=.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	doc, err := h.repo.FetchAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSummaryResponse(ledger.Summarize(doc, period, ledger.DateOf(h.now()))))
}

// Overdue handles GET /api/overdue.
func (h *Handler) Overdue(w http.ResponseWriter, r *http.Request) {
	h.checkOverdue(w, r, nil)
}

// CheckOverdue handles POST /api/overdue/check. It notifies the configured
// webhook when installments are overdue.
func (h *Handler) CheckOverdue(w http.ResponseWriter, r *http.Request) {
	h.checkOverdue(w, r, h.notifier)
}

func (h *Handler) checkOverdue(w http.ResponseWriter, r *http.Request, n *overdue.Notifier) {
	doc, err := h.repo.FetchAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := overdue.Check(r.Context(), doc, ledger.DateOf(h.now()), n)
	if err != nil {
		h.logger.Error("overdue notification failed", "error", err, "count", result.Count)
		writeJSONError(w, http.StatusBadGateway, "notification_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeDebtor(w http.ResponseWriter, r *http.Request, name string, status int) {
	doc, err := h.repo.FetchAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	debtor, ok := doc.FindByName(name)
	if !ok {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, debtor)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("invalid JSON body: %v", err))
		return false
	}
	return true
}

func parsePeriod(r *http.Request) (ledger.Period, error) {
	var p ledger.Period
	q := r.URL.Query()

	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil || year < 1 {
			return p, fmt.Errorf("invalid year: %q", v)
		}
		p.Year = year
	}
	if v := q.Get("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil || month < 1 || month > 12 {
			return p, fmt.Errorf("invalid month: %q", v)
		}
		p.Month = time.Month(month)
	}
	return p, nil
}
