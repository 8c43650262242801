package models

import (
	"time"

	"github.com/google/uuid"
)

// TemplateCategory groups viral templates by the part of a post they shape
type TemplateCategory string

const (
	TemplateCategoryHook      TemplateCategory = "hook"
	TemplateCategoryStructure TemplateCategory = "structure"
	TemplateCategoryCTA       TemplateCategory = "cta"
	TemplateCategoryFullPost  TemplateCategory = "full-post"
)

// Template is a reusable post structure shared by all users
type Template struct {
	ID                 uuid.UUID        `json:"id" yaml:"-"`
	Name               string           `json:"name" yaml:"name"`
	Category           TemplateCategory `json:"category" yaml:"category"`
	Subcategory        *string          `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`
	Description        string           `json:"description" yaml:"description"`
	TemplateStructure  string           `json:"template_structure" yaml:"template_structure"`
	ExamplePost        string           `json:"example_post" yaml:"example_post"`
	Variables          []string         `json:"variables" yaml:"variables"`
	AvgEngagementScore *float64         `json:"avg_engagement_score,omitempty" yaml:"avg_engagement_score,omitempty"`
	TimesUsed          int              `json:"times_used" yaml:"-"`
	Embedding          []float32        `json:"-" yaml:"-"`
	Similarity         float64          `json:"similarity,omitempty" yaml:"-"`
	CreatedAt          time.Time        `json:"created_at" yaml:"-"`
}

// EmbeddingText is the text embedded for similarity search
func (t *Template) EmbeddingText() string {
	return t.Name + ". " + t.Description + ". " + t.TemplateStructure + ". " + t.ExamplePost
}

// TemplateRef is the public summary of a template that contributed to a generation
type TemplateRef struct {
	Name     string           `json:"name"`
	Category TemplateCategory `json:"category"`
}
