package server

import (
	"net/http"
	"strings"
)

// authMiddleware validates bearer tokens. An empty token disables
// authentication for local single-user deployments.
func authMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","code":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// operatorFrom extracts the requesting operator's identity. The header
// wins over the query parameter.
func operatorFrom(r *http.Request) string {
	if operator := strings.TrimSpace(r.Header.Get("X-Operator")); operator != "" {
		return operator
	}
	return strings.TrimSpace(r.URL.Query().Get("operator"))
}
