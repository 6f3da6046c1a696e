// Package middleware provides the HTTP middleware for the bridge: webhook
// signature verification, admin authentication, and request-ID propagation.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/loopkit/linearbridge/internal/logger"
)

const headerRequestID = "X-Request-ID"

// RequestID honors an inbound X-Request-ID or assigns a fresh one, placing
// it in the request context and echoing it on the response. Webhook
// deliveries from Linear carry no request ID of their own, so most requests
// take the generated path.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
