package handlers

import (
	"context"
	"net/http"

	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// VoiceAnalyzer reads and calibrates voice profiles
type VoiceAnalyzer interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.VoiceProfile, error)
	Analyze(ctx context.Context, userID uuid.UUID, samples []string) (*models.VoiceProfile, error)
}

// VoiceProfileHandler handles voice profile requests
type VoiceProfileHandler struct {
	analyzer VoiceAnalyzer
	logger   *zap.Logger
}

// NewVoiceProfileHandler creates a new voice profile handler
func NewVoiceProfileHandler(analyzer VoiceAnalyzer, logger *zap.Logger) *VoiceProfileHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoiceProfileHandler{analyzer: analyzer, logger: logger}
}

// RegisterRoutes registers voice profile routes
func (h *VoiceProfileHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/voice-profile", h.GetProfile).Methods("GET")
	r.HandleFunc("/voice-profile", h.AnalyzeProfile).Methods("POST")
}

// AnalyzeVoiceRequest carries writing samples to calibrate from
type AnalyzeVoiceRequest struct {
	Samples []string `json:"samples" validate:"max=20,dive,max=10000"`
}

// VoiceProfileResponse wraps a possibly missing profile
type VoiceProfileResponse struct {
	Profile *models.VoiceProfile `json:"profile"`
}

// GetProfile returns the caller's voice profile, or null if not calibrated
func (h *VoiceProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	profile, err := h.analyzer.Get(r.Context(), user.ID)
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, VoiceProfileResponse{Profile: profile})
}

// AnalyzeProfile calibrates the caller's voice profile from writing samples
func (h *VoiceProfileHandler) AnalyzeProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AnalyzeVoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	samples := make([]string, len(req.Samples))
	for i, sample := range req.Samples {
		samples[i] = validation.SanitizeText(sample)
	}

	profile, err := h.analyzer.Analyze(r.Context(), user.ID, samples)
	if err != nil {
		respondAppError(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, VoiceProfileResponse{Profile: profile})
}
