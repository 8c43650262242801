package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/postcraft/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// VoiceProfileRepository handles voice profile persistence
type VoiceProfileRepository struct {
	db *DB
}

// NewVoiceProfileRepository creates a new voice profile repository
func NewVoiceProfileRepository(db *DB) *VoiceProfileRepository {
	return &VoiceProfileRepository{db: db}
}

// GetByUserID returns the user's profile or a wrapped sql.ErrNoRows
func (r *VoiceProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.VoiceProfile, error) {
	query := `
		SELECT id, user_id, writing_samples, sample_count, tone, formality_score, emoji_usage,
		       vocabulary_level, storytelling_style, common_phrases, full_analysis, is_calibrated, last_updated
		FROM user_voice_profiles
		WHERE user_id = $1
	`

	profile := &models.VoiceProfile{}
	var (
		tone, emoji, vocabulary, storytelling sql.NullString
		formality                             sql.NullFloat64
		analysisJSON                          []byte
		samples, phrases                      pq.StringArray
	)

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.ID,
		&profile.UserID,
		&samples,
		&profile.SampleCount,
		&tone,
		&formality,
		&emoji,
		&vocabulary,
		&storytelling,
		&phrases,
		&analysisJSON,
		&profile.IsCalibrated,
		&profile.LastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("voice profile not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voice profile: %w", err)
	}

	profile.WritingSamples = []string(samples)
	profile.CommonPhrases = []string(phrases)
	profile.Tone = tone.String
	profile.EmojiUsage = emoji.String
	profile.VocabularyLevel = vocabulary.String
	profile.StorytellingStyle = storytelling.String
	if formality.Valid {
		score := formality.Float64
		profile.FormalityScore = &score
	}
	if len(analysisJSON) > 0 {
		var analysis models.VoiceAnalysis
		if err := json.Unmarshal(analysisJSON, &analysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal voice analysis: %w", err)
		}
		profile.FullAnalysis = &analysis
	}

	return profile, nil
}

// Upsert writes the whole profile, replacing any previous one for the user
func (r *VoiceProfileRepository) Upsert(ctx context.Context, profile *models.VoiceProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	profile.SampleCount = len(profile.WritingSamples)
	profile.IsCalibrated = profile.SampleCount >= models.MinVoiceSamples
	profile.LastUpdated = time.Now().UTC()

	var analysisJSON []byte
	if profile.FullAnalysis != nil {
		var err error
		analysisJSON, err = json.Marshal(profile.FullAnalysis)
		if err != nil {
			return fmt.Errorf("failed to marshal voice analysis: %w", err)
		}
	}

	var embedding interface{}
	if len(profile.Embedding) > 0 {
		embedding = pgvector.NewVector(profile.Embedding)
	}

	query := `
		INSERT INTO user_voice_profiles (
			id, user_id, writing_samples, sample_count, tone, formality_score, emoji_usage,
			vocabulary_level, storytelling_style, common_phrases, full_analysis, embedding,
			is_calibrated, last_updated
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id) DO UPDATE SET
			writing_samples = EXCLUDED.writing_samples,
			sample_count = EXCLUDED.sample_count,
			tone = EXCLUDED.tone,
			formality_score = EXCLUDED.formality_score,
			emoji_usage = EXCLUDED.emoji_usage,
			vocabulary_level = EXCLUDED.vocabulary_level,
			storytelling_style = EXCLUDED.storytelling_style,
			common_phrases = EXCLUDED.common_phrases,
			full_analysis = EXCLUDED.full_analysis,
			embedding = EXCLUDED.embedding,
			is_calibrated = EXCLUDED.is_calibrated,
			last_updated = EXCLUDED.last_updated
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		profile.ID,
		profile.UserID,
		textArray(profile.WritingSamples),
		profile.SampleCount,
		profile.Tone,
		profile.FormalityScore,
		profile.EmojiUsage,
		profile.VocabularyLevel,
		profile.StorytellingStyle,
		textArray(profile.CommonPhrases),
		analysisJSON,
		embedding,
		profile.IsCalibrated,
		profile.LastUpdated,
	).Scan(&profile.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert voice profile: %w", err)
	}
	return nil
}
