package models

import (
	"time"

	"github.com/google/uuid"
)

// MemoryContentTypePublishedPost tags memory created from a post the user reported as published
const MemoryContentTypePublishedPost = "published_post"

// UserMemory is a prior content fragment owned by a user
type UserMemory struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"`
	KeyInsights []string  `json:"key_insights"`
	Embedding   []float32 `json:"-"`
	Similarity  float64   `json:"similarity,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
