package middleware

import (
	"net/http"
	"time"

	"github.com/benvon/postcraft/internal/request"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logging writes one http_request line per request. Server errors log at
// error level and client errors at warn.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			fields := append(requestFields(r),
				zap.Int("status_code", rec.status),
				zap.Int("response_bytes", rec.bytes),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)

			switch {
			case rec.status >= http.StatusInternalServerError:
				logger.Error("http_request", fields...)
			case rec.status >= http.StatusBadRequest:
				logger.Warn("http_request", fields...)
			default:
				logger.Info("http_request", fields...)
			}
		})
	}
}

// requestFields are the correlation fields shared by access and audit logs
func requestFields(r *http.Request) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("route", routeName(r)),
	}
	ctx := r.Context()
	if id := request.RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if userID := request.UserIDFromContext(ctx); userID != uuid.Nil {
		fields = append(fields, zap.String("user_id", userID.String()))
	}
	return fields
}
