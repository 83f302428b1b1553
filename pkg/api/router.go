package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the dashboard endpoints.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Route("/debtors", func(r chi.Router) {
			r.Get("/", h.ListDebtors)
			r.Post("/", h.RegisterDebtor)
			r.Delete("/{name}", h.RemoveDebtor)
			r.Post("/{name}/installments", h.AddInstallment)
			r.Delete("/{name}/installments/{dueDate}", h.RemoveInstallment)
		})

		r.Get("/rows", h.ListRows)
		r.Post("/rows/reconcile", h.Reconcile)
		r.Get("/summary", h.Summary)
		r.Get("/overdue", h.Overdue)
		r.Post("/overdue/check", h.CheckOverdue)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
