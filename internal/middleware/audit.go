package middleware

import (
	"net/http"

	logpkg "github.com/benvon/postcraft/internal/logger"
	"github.com/benvon/postcraft/internal/request"
	"go.uber.org/zap"
)

// auditedActions names the routes that spend quota, call paid providers,
// change billing state or write user data. Keys are "METHOD route-template".
var auditedActions = map[string]string{
	"POST /api/v1/generate":              "post_generated",
	"POST /api/v1/voice-profile":         "voice_profile_analyzed",
	"POST /api/v1/posts/{id}/engagement": "engagement_recorded",
	"POST /api/v1/billing/checkout":      "checkout_started",
	"GET /api/cron/trending-topics":      "trending_refreshed",
	"POST /api/cron/trending-topics":     "trending_refreshed",
}

// auditAction returns the audit action for the request's route, if any
func auditAction(r *http.Request) (string, bool) {
	action, ok := auditedActions[r.Method+" "+routeName(r)]
	return action, ok
}

// Audit logs security events (rejected credentials, rate limiting, quota
// denials) and the outcome of every audited action.
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			status := rec.status
			ip := logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)

			switch status {
			case http.StatusUnauthorized:
				logger.Warn("security_event", append(requestFields(r),
					zap.String("reason", "unauthenticated"),
					zap.String("ip", ip),
				)...)
			case http.StatusForbidden:
				logger.Info("quota_denied", requestFields(r)...)
			case http.StatusTooManyRequests:
				logger.Warn("rate_limit_violation", append(requestFields(r),
					zap.String("ip", ip),
				)...)
			}

			action, ok := auditAction(r)
			if !ok {
				return
			}
			fields := append(requestFields(r),
				zap.String("action", action),
				zap.Int("status_code", status),
			)
			if status >= http.StatusBadRequest {
				logger.Warn("audit_event_failed", fields...)
				return
			}
			logger.Info("audit_event", fields...)
		})
	}
}
