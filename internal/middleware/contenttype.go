package middleware

import (
	"net/http"
	"strings"

	"github.com/benvon/postcraft/internal/apperr"
	"go.uber.org/zap"
)

// ContentType requires application/json on requests that carry a body.
// Bodyless POSTs (checkout) are allowed through.
func ContentType(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPatch, http.MethodPut:
				if r.ContentLength == 0 && r.Header.Get("Content-Type") == "" {
					break
				}
				if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
					WriteError(w, r, http.StatusUnsupportedMediaType, apperr.KindValidation, "Content-Type must be application/json", logger)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
