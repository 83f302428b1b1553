package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/repository"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// statusOf maps an operation error to an HTTP status and error code.
// Store failures are checked first: a fetch error may wrap a validation
// sentinel raised while parsing the stored document.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrFetch):
		return http.StatusBadGateway, "store_unavailable"
	case errors.Is(err, repository.ErrWrite):
		return http.StatusBadGateway, "store_write_failed"
	case errors.Is(err, ledger.ErrDebtorNotFound),
		errors.Is(err, ledger.ErrInstallmentNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ledger.ErrDuplicateDebtor),
		errors.Is(err, ledger.ErrDuplicateDueDate):
		return http.StatusConflict, "conflict"
	case errors.Is(err, ledger.ErrInvalidDate),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidName),
		errors.Is(err, ledger.ErrInvalidInstallmentCount),
		errors.Is(err, repository.ErrRowCountMismatch),
		errors.Is(err, repository.ErrImmutableName):
		return http.StatusBadRequest, "invalid_request"
	}
	return http.StatusInternalServerError, "server_error"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		h.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSONError(w, status, code, err.Error())
}

