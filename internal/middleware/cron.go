package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/benvon/postcraft/internal/apperr"
	"go.uber.org/zap"
)

// CronAuth allows only requests carrying "Authorization: Bearer <secret>".
// An empty secret rejects every request.
func CronAuth(secret string, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok || secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				WriteAppError(w, r, apperr.Unauthorized("Unauthorized"), log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
