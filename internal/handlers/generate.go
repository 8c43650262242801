package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/postcraft/internal/services/generation"
	"github.com/benvon/postcraft/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// PostGenerator runs the generation pipeline
type PostGenerator interface {
	Generate(ctx context.Context, req generation.Request) (*generation.Result, error)
}

// GenerateHandler handles post generation requests
type GenerateHandler struct {
	generator PostGenerator
	logger    *zap.Logger
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(generator PostGenerator, logger *zap.Logger) *GenerateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerateHandler{generator: generator, logger: logger}
}

// RegisterRoutes registers the generate route
func (h *GenerateHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/generate", h.Generate).Methods("POST")
}

// GenerateRequest is the body of a generation request
type GenerateRequest struct {
	Topic   string `json:"topic" validate:"max=500"`
	Context string `json:"context" validate:"max=5000"`
}

// Generate produces three variations for a topic
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	result, err := h.generator.Generate(r.Context(), generation.Request{
		UserID:  user.ID,
		Topic:   validation.SanitizeText(req.Topic),
		Context: validation.SanitizeText(req.Context),
	})
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
