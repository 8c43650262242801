package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultRequestTimeout bounds ordinary API requests
const DefaultRequestTimeout = 30 * time.Second

// Timeout cancels the request context after timeout. Handlers observe the
// cancellation through their provider and database calls and answer with
// their own error; nothing is written here. Requests that ran into the
// deadline are logged with their route.
func Timeout(timeout time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logger.Warn("request_deadline_exceeded", append(requestFields(r),
					zap.Duration("timeout", timeout),
				)...)
			}
		})
	}
}
