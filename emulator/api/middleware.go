package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shunichi-ikebuchi/debt-tracker/emulator/store"
)

type contextKey string

const (
	contextKeyLogin contextKey = "login"
)

// AuthMiddleware rejects requests without a registered Bearer token.
func AuthMiddleware(st *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "Requires authentication")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || (parts[0] != "Bearer" && parts[0] != "token") {
				writeJSONError(w, http.StatusUnauthorized, "Bad credentials")
				return
			}

			login, err := st.LookupToken(parts[1])
			if err != nil {
				if err == store.ErrNotFound {
					writeJSONError(w, http.StatusUnauthorized, "Bad credentials")
					return
				}
				writeJSONError(w, http.StatusInternalServerError, "Failed to validate token")
				return
			}

			ctx := context.WithValue(r.Context(), contextKeyLogin, login)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func loginFromContext(ctx context.Context) string {
	login, _ := ctx.Value(contextKeyLogin).(string)
	return login
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Message string `json:"message"`
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
