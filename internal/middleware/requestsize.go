package middleware

import (
	"net/http"

	"github.com/benvon/postcraft/internal/apperr"
	"go.uber.org/zap"
)

// DefaultMaxRequestSize bounds request bodies (1MB). The largest legitimate
// body is a voice analysis request of 20 samples of 10k characters each.
const DefaultMaxRequestSize int64 = 1 << 20

// MaxRequestSize rejects bodies declared larger than maxBytes and caps the
// rest, so an undeclared oversized body fails at decode time.
func MaxRequestSize(maxBytes int64, logger *zap.Logger) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				WriteError(w, r, http.StatusRequestEntityTooLarge, apperr.KindValidation, "Request body too large", logger)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
