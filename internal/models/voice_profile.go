package models

import (
	"time"

	"github.com/google/uuid"
)

// MinVoiceSamples is the number of writing samples needed to calibrate a voice profile
const MinVoiceSamples = 3

// DefaultFormalityScore is used when a profile carries no formality score
const DefaultFormalityScore = 0.5

// VoiceAnalysis is the structured voice description returned by the language model
type VoiceAnalysis struct {
	Tone                   string   `json:"tone"`
	FormalityScore         *float64 `json:"formality_score"`
	EmojiUsage             string   `json:"emoji_usage"`
	VocabularyLevel        string   `json:"vocabulary_level"`
	StorytellingStyle      string   `json:"storytelling_style"`
	CommonPhrases          []string `json:"common_phrases"`
	SentenceStructure      string   `json:"sentence_structure"`
	ParagraphStructure     string   `json:"paragraph_structure"`
	OpeningStyle           string   `json:"opening_style"`
	ClosingStyle           string   `json:"closing_style"`
	UseOfHumor             string   `json:"use_of_humor"`
	UseOfData              string   `json:"use_of_data"`
	PersonalVsProfessional string   `json:"personal_vs_professional"`
	KeyInsights            []string `json:"key_insights"`
}

// VoiceProfile is the calibrated writing style of a single user
type VoiceProfile struct {
	ID                uuid.UUID      `json:"id"`
	UserID            uuid.UUID      `json:"user_id"`
	WritingSamples    []string       `json:"writing_samples"`
	SampleCount       int            `json:"sample_count"`
	Tone              string         `json:"tone"`
	FormalityScore    *float64       `json:"formality_score,omitempty"`
	EmojiUsage        string         `json:"emoji_usage"`
	VocabularyLevel   string         `json:"vocabulary_level"`
	StorytellingStyle string         `json:"storytelling_style"`
	CommonPhrases     []string       `json:"common_phrases"`
	FullAnalysis      *VoiceAnalysis `json:"full_analysis,omitempty"`
	Embedding         []float32      `json:"-"`
	IsCalibrated      bool           `json:"is_calibrated"`
	LastUpdated       time.Time      `json:"last_updated"`
}

// Formality returns the formality score, falling back to the default when unset
func (p *VoiceProfile) Formality() float64 {
	if p.FormalityScore == nil {
		return DefaultFormalityScore
	}
	return *p.FormalityScore
}
