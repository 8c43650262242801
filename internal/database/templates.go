package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/benvon/postcraft/internal/models"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// TemplateRepository handles viral template storage and matching
type TemplateRepository struct {
	db *DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// Upsert inserts a template or refreshes the one with the same name
func (r *TemplateRepository) Upsert(ctx context.Context, t *models.Template) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	variables := t.Variables
	if variables == nil {
		variables = []string{}
	}
	variablesJSON, err := json.Marshal(variables)
	if err != nil {
		return fmt.Errorf("failed to marshal template variables: %w", err)
	}

	var embedding interface{}
	if len(t.Embedding) > 0 {
		embedding = pgvector.NewVector(t.Embedding)
	}

	query := `
		INSERT INTO viral_templates (
			id, name, category, subcategory, description, template_structure, example_post,
			variables, avg_engagement_score, embedding
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (name) DO UPDATE SET
			category = EXCLUDED.category,
			subcategory = EXCLUDED.subcategory,
			description = EXCLUDED.description,
			template_structure = EXCLUDED.template_structure,
			example_post = EXCLUDED.example_post,
			variables = EXCLUDED.variables,
			avg_engagement_score = EXCLUDED.avg_engagement_score,
			embedding = EXCLUDED.embedding
		RETURNING id, created_at
	`
	err = r.db.QueryRowContext(ctx, query,
		t.ID,
		t.Name,
		t.Category,
		t.Subcategory,
		t.Description,
		t.TemplateStructure,
		t.ExamplePost,
		variablesJSON,
		t.AvgEngagementScore,
		embedding,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert template %q: %w", t.Name, err)
	}
	return nil
}

// Match returns up to k templates whose similarity to vec is at least threshold
func (r *TemplateRepository) Match(ctx context.Context, vec []float32, threshold float64, k int) ([]*models.Template, error) {
	query := `
		SELECT id, name, category, description, template_structure, example_post, similarity
		FROM match_templates($1, $2, $3)
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(vec), threshold, k)
	if err != nil {
		return nil, fmt.Errorf("failed to match templates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var templates []*models.Template
	for rows.Next() {
		t := &models.Template{}
		var description, example sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &description, &t.TemplateStructure, &example, &t.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan template match: %w", err)
		}
		t.Description = description.String
		t.ExamplePost = example.String
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate template matches: %w", err)
	}

	sortBySimilarity(templates,
		func(t *models.Template) float64 { return t.Similarity },
		func(t *models.Template) uuid.UUID { return t.ID })
	if len(templates) > k {
		templates = templates[:k]
	}
	return templates, nil
}
