package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/benvon/postcraft/internal/request"
	"go.uber.org/zap"
)

// ErrorResponse is the envelope written when middleware rejects a request.
// It has the same shape as the handlers' error envelope.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler recovers from handler panics. If the handler had not started
// its response, the client gets an InternalError envelope.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logger.Error("panic_recovered",
					zap.Any("error", p),
					zap.String("route", routeName(r)),
					zap.String("method", r.Method),
					zap.String("request_id", request.RequestIDFromContext(r.Context())),
					zap.Bool("response_started", rec.wroteHeader),
					zap.Stack("stack"),
				)
				if rec.wroteHeader {
					return
				}
				WriteError(rec, r, http.StatusInternalServerError, apperr.KindInternal, apperr.PublicMessage(nil), logger)
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

// WriteAppError writes err's status, kind and caller-safe message
func WriteAppError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	kind := apperr.KindOf(err)
	WriteError(w, r, apperr.HTTPStatus(kind), kind, apperr.PublicMessage(err), logger)
}

// WriteError writes the error envelope shared by middleware and handlers
func WriteError(w http.ResponseWriter, r *http.Request, status int, kind apperr.Kind, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := ErrorResponse{
		Success:   false,
		Error:     string(kind),
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: request.RequestIDFromContext(r.Context()),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil && logger != nil {
		logger.Error("failed_to_encode_error_response",
			zap.Error(err),
			zap.Int("status_code", status),
			zap.String("route", routeName(r)),
		)
	}
}
