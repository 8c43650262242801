// Package voice calibrates a user's writing voice from sample posts.
package voice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/services/ai"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotEnoughSamples is the caller-facing message when too few samples are given
const ErrNotEnoughSamples = "At least 3 writing samples required"

const analysisSchema = `{
  "tone": "overall tone (e.g., professional yet conversational, authoritative, friendly, etc.)",
  "formality_score": 0.7,
  "emoji_usage": "description of emoji usage (e.g., occasional, frequent, never, strategic)",
  "vocabulary_level": "description (e.g., accessible, technical, sophisticated, simple)",
  "storytelling_style": "description of how they tell stories (e.g., personal anecdotes, data-driven, metaphor-heavy)",
  "common_phrases": ["phrase 1", "phrase 2", "phrase 3"],
  "sentence_structure": "description (e.g., short and punchy, long and complex, varied)",
  "paragraph_structure": "description (e.g., single sentences, dense paragraphs, strategic whitespace)",
  "opening_style": "how they typically open (e.g., questions, statements, stories)",
  "closing_style": "how they typically close (e.g., calls to action, questions, statements)",
  "use_of_humor": "description",
  "use_of_data": "description",
  "personal_vs_professional": "ratio description",
  "key_insights": ["insight 1", "insight 2", "insight 3"]
}`

// Analyzer derives and stores voice profiles
type Analyzer struct {
	profiles  database.VoiceProfileRepositoryInterface
	generator ai.TextGenerator
	embedder  ai.Embedder
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnalyzer creates a voice analyzer
func NewAnalyzer(profiles database.VoiceProfileRepositoryInterface, generator ai.TextGenerator, embedder ai.Embedder, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		profiles:  profiles,
		generator: generator,
		embedder:  embedder,
		logger:    logger,
		now:       time.Now,
	}
}

// Get returns the user's voice profile, or nil when none has been calibrated
func (a *Analyzer) Get(ctx context.Context, userID uuid.UUID) (*models.VoiceProfile, error) {
	profile, err := a.profiles.GetByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to load voice profile", err)
	}
	return profile, nil
}

// Analyze asks the model to describe the voice of samples, embeds them and
// replaces the user's stored profile with the result.
func (a *Analyzer) Analyze(ctx context.Context, userID uuid.UUID, samples []string) (*models.VoiceProfile, error) {
	cleaned := CleanSamples(samples)
	if len(cleaned) < models.MinVoiceSamples {
		return nil, apperr.Validation(ErrNotEnoughSamples)
	}
	ctx = ai.WithUserID(ctx, userID.String())

	raw, err := a.generator.Generate(ctx, BuildAnalysisPrompt(cleaned))
	if err != nil {
		return nil, apperr.Upstream("Failed to analyze voice", err)
	}
	analysis, err := ParseAnalysis(raw)
	if err != nil {
		a.logger.Warn("voice_analysis_parse_failed",
			zap.String("user_id", userID.String()),
			zap.String("response_preview", ai.Preview(raw, false)),
		)
		return nil, err
	}

	vec, err := a.embedder.Embed(ctx, strings.Join(cleaned, "\n\n"))
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, err
		}
		return nil, apperr.Upstream("Failed to analyze voice", err)
	}

	profile := &models.VoiceProfile{
		UserID:            userID,
		WritingSamples:    cleaned,
		Tone:              analysis.Tone,
		FormalityScore:    analysis.FormalityScore,
		EmojiUsage:        analysis.EmojiUsage,
		VocabularyLevel:   analysis.VocabularyLevel,
		StorytellingStyle: analysis.StorytellingStyle,
		CommonPhrases:     analysis.CommonPhrases,
		FullAnalysis:      analysis,
		Embedding:         vec,
		LastUpdated:       a.now().UTC(),
	}
	if err := a.profiles.Upsert(ctx, profile); err != nil {
		return nil, apperr.Persistence("Failed to save voice profile", err)
	}

	a.logger.Info("voice_profile_calibrated",
		zap.String("user_id", userID.String()),
		zap.Int("sample_count", profile.SampleCount),
		zap.Bool("is_calibrated", profile.IsCalibrated),
	)
	return profile, nil
}

// CleanSamples trims every sample and drops the empty ones
func CleanSamples(samples []string) []string {
	cleaned := make([]string, 0, len(samples))
	for _, s := range samples {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}

// BuildAnalysisPrompt renders the voice analysis prompt for the given samples
func BuildAnalysisPrompt(samples []string) string {
	numbered := make([]string, len(samples))
	for i, s := range samples {
		numbered[i] = fmt.Sprintf("Sample %d:\n%s", i+1, s)
	}

	var b strings.Builder
	b.WriteString("Analyze these writing samples and extract the author's voice characteristics. Provide a detailed analysis in JSON format.\n\n")
	b.WriteString("Writing Samples:\n")
	b.WriteString(strings.Join(numbered, "\n\n---\n\n"))
	b.WriteString("\n\nProvide your analysis in this exact JSON format:\n")
	b.WriteString(analysisSchema)
	b.WriteString("\n\nBe specific and detailed. The formality_score should be between 0 and 1.")
	return b.String()
}

// ParseAnalysis extracts the voice analysis object from a model response
func ParseAnalysis(raw string) (*models.VoiceAnalysis, error) {
	var analysis models.VoiceAnalysis
	if err := ai.DecodeJSONObject(raw, &analysis); err != nil {
		return nil, err
	}
	if strings.TrimSpace(analysis.Tone) == "" {
		return nil, apperr.Parse("voice analysis is missing tone", nil)
	}
	if analysis.FormalityScore == nil {
		return nil, apperr.Parse("voice analysis is missing formality_score", nil)
	}
	if f := *analysis.FormalityScore; f < 0 || f > 1 {
		return nil, apperr.Parse(fmt.Sprintf("formality_score %v is outside [0,1]", f), nil)
	}
	return &analysis, nil
}
