// Package seed loads and stores the built-in viral templates.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/services/ai"
	"github.com/benvon/postcraft/internal/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var builtinTemplates string

// TemplateStore persists seeded templates
type TemplateStore interface {
	Upsert(ctx context.Context, t *models.Template) error
}

type templateDoc struct {
	Name              string                  `yaml:"name" validate:"notblank"`
	Category          models.TemplateCategory `yaml:"category" validate:"oneof=hook structure cta full-post"`
	Subcategory       string                  `yaml:"subcategory"`
	Description       string                  `yaml:"description" validate:"notblank"`
	TemplateStructure string                  `yaml:"template_structure" validate:"notblank"`
	ExamplePost       string                  `yaml:"example_post" validate:"notblank"`
	Variables         []string                `yaml:"variables"`
}

// BuiltinTemplates returns the templates shipped with the binary
func BuiltinTemplates() ([]*models.Template, error) {
	return LoadTemplates(strings.NewReader(builtinTemplates))
}

// LoadTemplates decodes a YAML list of templates and validates each entry
func LoadTemplates(r io.Reader) ([]*models.Template, error) {
	var docs []templateDoc
	if err := yaml.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("failed to decode templates: %w", err)
	}

	seen := make(map[string]bool, len(docs))
	templates := make([]*models.Template, 0, len(docs))
	for i, d := range docs {
		if err := validation.Struct(d); err != nil {
			return nil, fmt.Errorf("template %d (%q): %w", i, d.Name, err)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("duplicate template name %q", d.Name)
		}
		seen[d.Name] = true

		t := &models.Template{
			Name:              d.Name,
			Category:          d.Category,
			Description:       d.Description,
			TemplateStructure: d.TemplateStructure,
			ExamplePost:       d.ExamplePost,
			Variables:         d.Variables,
		}
		if d.Subcategory != "" {
			sub := d.Subcategory
			t.Subcategory = &sub
		}
		templates = append(templates, t)
	}
	return templates, nil
}

// EmbeddingText is the text a template is indexed under
func EmbeddingText(t *models.Template) string {
	return fmt.Sprintf("%s. %s. %s. %s", t.Name, t.Description, t.TemplateStructure, t.ExamplePost)
}

// Templates embeds and upserts each template. It stops at the first failure
// and returns the number stored before it.
func Templates(ctx context.Context, store TemplateStore, embedder ai.Embedder, templates []*models.Template, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	stored := 0
	for _, t := range templates {
		vec, err := embedder.Embed(ctx, EmbeddingText(t))
		if err != nil {
			return stored, fmt.Errorf("failed to embed template %q: %w", t.Name, err)
		}
		t.Embedding = vec
		if err := store.Upsert(ctx, t); err != nil {
			return stored, fmt.Errorf("failed to store template %q: %w", t.Name, err)
		}
		stored++
		logger.Info("template_seeded",
			zap.String("name", t.Name),
			zap.String("category", string(t.Category)),
		)
	}
	return stored, nil
}
