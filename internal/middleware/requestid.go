package middleware

import (
	"net/http"

	"github.com/benvon/postcraft/internal/request"
	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation ID
const RequestIDHeader = "X-Request-ID"

// RequestID assigns every request an ID and echoes it in the response. The ID
// lives on the request data, where access logs, error envelopes and provider
// debug logs read it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		next.ServeHTTP(w, r.WithContext(request.WithRequestID(r.Context(), id)))
	})
}
