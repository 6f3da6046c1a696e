package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// HeaderAPIKey carries the admin API key on management endpoints.
const HeaderAPIKey = "X-API-Key"

// AdminAuth returns middleware that guards management endpoints with a
// bcrypt-hashed admin key. An empty hash disables the endpoints entirely
// rather than leaving them open.
func AdminAuth(adminKeyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKeyHash == "" {
				http.Error(w, `{"error":"admin endpoints not configured"}`, http.StatusServiceUnavailable)
				return
			}

			key := r.Header.Get(HeaderAPIKey)
			if key == "" {
				http.Error(w, `{"error":"missing API key"}`, http.StatusUnauthorized)
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(adminKeyHash), []byte(key)); err != nil {
				http.Error(w, `{"error":"invalid API key"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
