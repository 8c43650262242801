package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/postcraft/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CheckoutStarter opens a subscription checkout for a user
type CheckoutStarter interface {
	Checkout(ctx context.Context, user *models.User) (string, error)
}

// BillingHandler handles subscription checkout
type BillingHandler struct {
	billing CheckoutStarter
	logger  *zap.Logger
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billing CheckoutStarter, logger *zap.Logger) *BillingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingHandler{billing: billing, logger: logger}
}

// RegisterRoutes registers billing routes
func (h *BillingHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/billing/checkout", h.Checkout).Methods("POST")
}

// CheckoutResponse carries the hosted checkout URL
type CheckoutResponse struct {
	URL string `json:"url"`
}

// Checkout creates a checkout session for the Pro plan
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	url, err := h.billing.Checkout(r.Context(), user)
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutResponse{URL: url})
}
