package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/benvon/postcraft/internal/middleware"
	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/request"
	"github.com/benvon/postcraft/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Post history pagination bounds
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// SuccessResponse is the envelope for every 2xx body
type SuccessResponse struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, an encode failure can only be dropped
	_ = json.NewEncoder(w).Encode(SuccessResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// respondAppError writes err as the error envelope. Failures that map to a
// 5xx are logged with their cause, which never reaches the caller.
func respondAppError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	if apperr.HTTPStatus(kind) >= http.StatusInternalServerError {
		log.Error("request_failed",
			zap.String("request_id", request.RequestIDFromContext(r.Context())),
			zap.String("route", routeTemplate(r)),
			zap.String("error_kind", string(kind)),
			zap.Error(err),
		)
	}
	middleware.WriteAppError(w, r, err, log)
}

// routeTemplate names the endpoint without its path parameters
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.Method
}

// requireUser returns the authenticated user or writes a 401
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user := middleware.UserFromContext(r)
	if user == nil {
		middleware.WriteAppError(w, r, apperr.Unauthorized("Unauthorized"), nil)
		return nil, false
	}
	return user, true
}

// decodeJSON decodes and validates a request body. An empty body decodes to the zero value.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Validation("Request body too large")
		}
		return apperr.Validation("Invalid request body")
	}
	return validation.Struct(v)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, apperr.Validation(fmt.Sprintf("Invalid %s", name))
	}
	return id, nil
}

// parsePagination reads page and page_size, applying defaults and bounds
func parsePagination(r *http.Request) (page, pageSize int) {
	page, pageSize = 1, DefaultPageSize
	q := r.URL.Query()

	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}
	if ps, err := strconv.Atoi(q.Get("page_size")); err == nil && ps > 0 {
		pageSize = min(ps, MaxPageSize)
	}
	return page, pageSize
}
