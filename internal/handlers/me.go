package handlers

import (
	"net/http"

	"github.com/benvon/postcraft/internal/models"
	"github.com/gorilla/mux"
)

// MeHandler returns the authenticated account
type MeHandler struct{}

// NewMeHandler creates a new account handler
func NewMeHandler() *MeHandler {
	return &MeHandler{}
}

// RegisterRoutes registers account routes
func (h *MeHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/me", h.GetMe).Methods("GET")
}

// MeResponse is the caller's account with plan usage
type MeResponse struct {
	*models.User
	RemainingPosts int `json:"remaining_posts"`
}

// GetMe returns the caller's account, plan, and usage
func (h *MeHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, MeResponse{User: user, RemainingPosts: user.RemainingPosts()})
}
