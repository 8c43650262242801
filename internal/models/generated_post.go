package models

import (
	"time"

	"github.com/google/uuid"
)

// GeneratedPost is the persisted output of a generation request
type GeneratedPost struct {
	ID                uuid.UUID     `json:"id"`
	UserID            uuid.UUID     `json:"user_id"`
	InputTopic        string        `json:"input_topic"`
	InputContext      *string       `json:"input_context,omitempty"`
	GeneratedContent  string        `json:"generated_content"`
	VariationType     VariationType `json:"variation_type"`
	TemplatesUsed     []uuid.UUID   `json:"templates_used"`
	WasPosted         bool          `json:"was_posted"`
	ActualLikes       *int          `json:"actual_likes,omitempty"`
	ActualComments    *int          `json:"actual_comments,omitempty"`
	ActualImpressions *int          `json:"actual_impressions,omitempty"`
	UserRating        *int          `json:"user_rating,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// Engagement is real-world outcome feedback for a generated post
type Engagement struct {
	ActualLikes       *int `json:"actual_likes,omitempty"`
	ActualComments    *int `json:"actual_comments,omitempty"`
	ActualImpressions *int `json:"actual_impressions,omitempty"`
	UserRating        *int `json:"user_rating,omitempty"`
}
