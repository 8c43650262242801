package models

import (
	"time"

	"github.com/google/uuid"
)

// TrendingTopicTTL is how long a refreshed topic stays visible
const TrendingTopicTTL = 7 * 24 * time.Hour

// TrendingTopic is an ephemeral topic extracted from news headlines
type TrendingTopic struct {
	ID              uuid.UUID `json:"id"`
	Topic           string    `json:"topic"`
	Category        string    `json:"category"`
	SuggestedAngles []string  `json:"suggested_angles"`
	Industries      []string  `json:"industries"`
	RelevanceScore  float64   `json:"relevance_score"`
	ExpiresAt       time.Time `json:"expires_at"`
	Embedding       []float32 `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}
