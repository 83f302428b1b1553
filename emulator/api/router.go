package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shunichi-ikebuchi/debt-tracker/emulator/store"
)

// Options tunes the emulated API.
type Options struct {
	TruncateAt     int
	RequestLogging bool
}

// NewRouter wires the emulated endpoints.
func NewRouter(st *store.Store, opts Options) http.Handler {
	gists := NewGistsHandler(st)
	gists.TruncateAt = opts.TruncateAt

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if opts.RequestLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Raw content is served without authentication, like GitHub's raw host.
	r.Get("/raw/{id}/{filename}", gists.Raw)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(st))

		r.Get("/user", gists.User)
		r.Post("/gists", gists.Create)
		r.Get("/gists/{id}", gists.Get)
		r.Patch("/gists/{id}", gists.Update)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
