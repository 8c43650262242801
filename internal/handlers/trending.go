package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/postcraft/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// TopicLister returns the active trending topics
type TopicLister interface {
	Active(ctx context.Context) ([]*models.TrendingTopic, error)
}

// TopicRefresher rebuilds the trending topic set
type TopicRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// TrendingHandler handles trending topic reads and the scheduled refresh
type TrendingHandler struct {
	topics    TopicLister
	refresher TopicRefresher
	logger    *zap.Logger
}

// NewTrendingHandler creates a new trending handler
func NewTrendingHandler(topics TopicLister, refresher TopicRefresher, logger *zap.Logger) *TrendingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrendingHandler{topics: topics, refresher: refresher, logger: logger}
}

// RegisterRoutes registers the authenticated read route
func (h *TrendingHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/trending-topics", h.ListTopics).Methods("GET")
}

// RegisterCronRoutes registers the refresh route on a router guarded by the cron secret
func (h *TrendingHandler) RegisterCronRoutes(r *mux.Router) {
	r.HandleFunc("/trending-topics", h.RefreshTopics).Methods("GET", "POST")
}

// TrendingTopicsResponse lists active topics
type TrendingTopicsResponse struct {
	Topics []*models.TrendingTopic `json:"topics"`
}

// RefreshResponse reports how many topics a refresh stored
type RefreshResponse struct {
	TopicsInserted int `json:"topicsInserted"`
}

// ListTopics returns the active trending topics
func (h *TrendingHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	topics, err := h.topics.Active(r.Context())
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}
	if topics == nil {
		topics = []*models.TrendingTopic{}
	}

	respondJSON(w, http.StatusOK, TrendingTopicsResponse{Topics: topics})
}

// RefreshTopics replaces the trending topic set from the news feeds
func (h *TrendingHandler) RefreshTopics(w http.ResponseWriter, r *http.Request) {
	n, err := h.refresher.Refresh(r.Context())
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, RefreshResponse{TopicsInserted: n})
}
