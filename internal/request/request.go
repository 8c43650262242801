// Package request holds per-request context values shared by middleware and handlers.
package request

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/benvon/postcraft/internal/models"
	"github.com/google/uuid"
)

type contextKey string

const (
	userContextKey contextKey = "user"
	dataContextKey contextKey = "request_data"
)

// Data is the mutable record of one request. It is attached at the edge of the
// middleware chain so outer layers (access and audit logs) can read what inner
// layers learned, such as the authenticated user.
type Data struct {
	RequestID string
	UserID    uuid.UUID
}

// UserContextKey is exposed for tests that store a non-user value under the key
func UserContextKey() contextKey { return userContextKey }

// ClientIP returns the caller's address for anonymous rate limiting and
// security logs. The API runs behind a proxy, so the left-most
// X-Forwarded-For entry wins, then X-Real-IP, then the socket peer without
// its port.
func ClientIP(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// WithUser returns a context with the user attached. The user's ID is also
// recorded on the request Data, when present.
func WithUser(ctx context.Context, user *models.User) context.Context {
	if d := DataFromContext(ctx); d != nil && user != nil {
		d.UserID = user.ID
	}
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, or nil on unauthenticated routes
func UserFromContext(r *http.Request) *models.User {
	u, _ := r.Context().Value(userContextKey).(*models.User)
	return u
}

// WithData attaches d to ctx
func WithData(ctx context.Context, d *Data) context.Context {
	return context.WithValue(ctx, dataContextKey, d)
}

// DataFromContext returns the request Data, or nil outside an HTTP request
func DataFromContext(ctx context.Context) *Data {
	d, _ := ctx.Value(dataContextKey).(*Data)
	return d
}

// WithRequestID returns a context carrying fresh request Data with the given ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return WithData(ctx, &Data{RequestID: id})
}

// RequestIDFromContext returns the request ID, or "" when none was assigned.
func RequestIDFromContext(ctx context.Context) string {
	if d := DataFromContext(ctx); d != nil {
		return d.RequestID
	}
	return ""
}

// UserIDFromContext returns the authenticated user's ID recorded on the request
// Data, or uuid.Nil before authentication.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	if d := DataFromContext(ctx); d != nil {
		return d.UserID
	}
	return uuid.Nil
}
