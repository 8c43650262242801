package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/queue"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const postNotFoundMessage = "Post not found"

// PostHandler handles generated post history and engagement feedback
type PostHandler struct {
	posts  database.GeneratedPostRepositoryInterface
	jobs   queue.Enqueuer
	logger *zap.Logger
}

// NewPostHandler creates a new post handler. jobs may be nil, in which case
// engagement is recorded without memory ingestion.
func NewPostHandler(posts database.GeneratedPostRepositoryInterface, jobs queue.Enqueuer, logger *zap.Logger) *PostHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostHandler{posts: posts, jobs: jobs, logger: logger}
}

// RegisterRoutes registers post routes
// The router should already have the /posts prefix
func (h *PostHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListPosts).Methods("GET")
	r.HandleFunc("/{id}", h.GetPost).Methods("GET")
	r.HandleFunc("/{id}/engagement", h.RecordEngagement).Methods("POST")
}

// EngagementRequest is real-world outcome feedback for a post
type EngagementRequest struct {
	ActualLikes       *int `json:"actual_likes" validate:"omitempty,min=0"`
	ActualComments    *int `json:"actual_comments" validate:"omitempty,min=0"`
	ActualImpressions *int `json:"actual_impressions" validate:"omitempty,min=0"`
	UserRating        *int `json:"user_rating" validate:"omitempty,min=1,max=5"`
}

// ListPostsResponse represents the paginated response for listing posts
type ListPostsResponse struct {
	Posts      []*models.GeneratedPost `json:"posts"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	Total      int                     `json:"total"`
	TotalPages int                     `json:"total_pages"`
}

// ListPosts lists the caller's generated posts, newest first
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	page, pageSize := parsePagination(r)
	posts, total, err := h.posts.ListByUser(r.Context(), user.ID, page, pageSize)
	if err != nil {
		respondAppError(w, r, h.logger, apperr.Persistence("Failed to list posts", err))
		return
	}
	if posts == nil {
		posts = []*models.GeneratedPost{}
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}

	respondJSON(w, http.StatusOK, ListPostsResponse{
		Posts:      posts,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	})
}

// GetPost returns one of the caller's generated posts
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.GetByID(r.Context(), id, user.ID)
	if err != nil {
		respondAppError(w, r, h.logger, postLookupError(err, "Failed to get post"))
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// RecordEngagement marks a post as published with its metrics and queues it for memory ingestion
func (h *PostHandler) RecordEngagement(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	var req EngagementRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	post, err := h.posts.RecordEngagement(r.Context(), id, user.ID, models.Engagement{
		ActualLikes:       req.ActualLikes,
		ActualComments:    req.ActualComments,
		ActualImpressions: req.ActualImpressions,
		UserRating:        req.UserRating,
	})
	if err != nil {
		respondAppError(w, r, h.logger, postLookupError(err, "Failed to record engagement"))
		return
	}

	if h.jobs != nil {
		if err := h.jobs.Enqueue(r.Context(), queue.NewMemoryIngestJob(user.ID, post.ID)); err != nil {
			// The engagement is already stored; ingestion can be replayed later
			h.logger.Error("memory_ingest_enqueue_failed",
				zap.String("user_id", user.ID.String()),
				zap.String("post_id", post.ID.String()),
				zap.Error(err),
			)
		}
	}

	respondJSON(w, http.StatusOK, post)
}

func postLookupError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(postNotFoundMessage)
	}
	return apperr.Persistence(message, err)
}
