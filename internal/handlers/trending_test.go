package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/benvon/postcraft/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func TestTrendingHandler_ListTopics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		topics     []*models.TrendingTopic
		wantCount  int
		wantStatus int
	}{
		{"returns topics", []*models.TrendingTopic{{ID: uuid.New(), Topic: "AI agents"}, {ID: uuid.New(), Topic: "Layoffs"}}, 2, http.StatusOK},
		{"none active", nil, 0, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			lister := &mockTopicLister{activeFunc: func(context.Context) ([]*models.TrendingTopic, error) {
				return tt.topics, nil
			}}
			router := mux.NewRouter()
			NewTrendingHandler(lister, &mockTopicRefresher{}, nil).RegisterRoutes(router.PathPrefix("/api/v1").Subrouter())

			w := httptest.NewRecorder()
			router.ServeHTTP(w, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/trending-topics", nil), testUser()))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var data struct {
				Topics []map[string]any `json:"topics"`
			}
			if err := json.Unmarshal(decodeEnvelope(t, w).Data, &data); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			if data.Topics == nil {
				t.Error("topics should be a list, not null")
			}
			if len(data.Topics) != tt.wantCount {
				t.Errorf("topics = %d, want %d", len(data.Topics), tt.wantCount)
			}
		})
	}
}

func TestTrendingHandler_RefreshTopics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		refreshN   int
		refreshErr error
		wantStatus int
		wantMsg    string
	}{
		{"refreshes", 8, nil, http.StatusOK, ""},
		{"no headlines", 0, apperr.Upstream("No headlines fetched", nil), http.StatusInternalServerError, "No headlines fetched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			refresher := &mockTopicRefresher{refreshFunc: func(context.Context) (int, error) {
				return tt.refreshN, tt.refreshErr
			}}
			router := mux.NewRouter()
			NewTrendingHandler(&mockTopicLister{}, refresher, nil).RegisterCronRoutes(router.PathPrefix("/api/cron").Subrouter())

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cron/trending-topics", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			env := decodeEnvelope(t, w)
			if tt.wantMsg != "" {
				if env.Message != tt.wantMsg {
					t.Errorf("message = %q, want %q", env.Message, tt.wantMsg)
				}
				return
			}
			var data map[string]int
			if err := json.Unmarshal(env.Data, &data); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			if data["topicsInserted"] != tt.refreshN {
				t.Errorf("topicsInserted = %d, want %d", data["topicsInserted"], tt.refreshN)
			}
		})
	}
}
