package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func auditRouter(logger *zap.Logger, status int) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID)
	r.Use(Audit(logger))
	reply := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(status) }
	r.HandleFunc("/api/v1/generate", reply).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/posts/{id}/engagement", reply).Methods(http.MethodPost)
	r.HandleFunc("/api/v1/me", reply).Methods(http.MethodGet)
	return r
}

func TestAudit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		status     int
		wantMsg    string
		wantAction string
	}{
		{"generation succeeded", http.MethodPost, "/api/v1/generate", http.StatusOK, "audit_event", "post_generated"},
		{"generation failed", http.MethodPost, "/api/v1/generate", http.StatusBadGateway, "audit_event_failed", "post_generated"},
		{"engagement on templated route", http.MethodPost, "/api/v1/posts/0b7c/engagement", http.StatusCreated, "audit_event", "engagement_recorded"},
		{"unauthenticated", http.MethodGet, "/api/v1/me", http.StatusUnauthorized, "security_event", ""},
		{"quota exhausted", http.MethodPost, "/api/v1/generate", http.StatusForbidden, "quota_denied", ""},
		{"rate limited", http.MethodGet, "/api/v1/me", http.StatusTooManyRequests, "rate_limit_violation", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.InfoLevel)
			w := httptest.NewRecorder()
			auditRouter(zap.New(core), tt.status).ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			entries := logs.FilterMessage(tt.wantMsg).All()
			if len(entries) != 1 {
				t.Fatalf("expected one %s log, got %d (all: %d)", tt.wantMsg, len(entries), logs.Len())
			}
			if tt.wantAction != "" {
				if got := entries[0].ContextMap()["action"]; got != tt.wantAction {
					t.Errorf("action = %v, want %s", got, tt.wantAction)
				}
			}
		})
	}
}

func TestAudit_IgnoresPlainReads(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	auditRouter(zap.New(core), http.StatusOK).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))

	if logs.Len() != 0 {
		t.Errorf("expected no audit output for a successful read, got %d entries", logs.Len())
	}
}

func TestAudit_QuotaDeniedOnAuditedRouteLogsBoth(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	auditRouter(zap.New(core), http.StatusForbidden).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/generate", nil))

	if logs.FilterMessage("quota_denied").Len() != 1 {
		t.Error("expected quota_denied")
	}
	if logs.FilterMessage("audit_event_failed").Len() != 1 {
		t.Error("expected audit_event_failed")
	}
}
