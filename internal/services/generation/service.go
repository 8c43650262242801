package generation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/logger"
	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/services/ai"
	"github.com/benvon/postcraft/internal/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// MinTopicLength is the minimum trimmed topic length, in characters
	MinTopicLength = 3
	// SearchThreshold is the minimum similarity for template and community matches
	SearchThreshold = 0.5
	// SearchLimit caps each similarity search
	SearchLimit = 5

	// QuotaExceededMessage is shown when the monthly allowance is used up
	QuotaExceededMessage = "Monthly limit reached. Upgrade to Pro for more posts."
	// GenerateFailedMessage is the caller-safe message for server-side failures
	GenerateFailedMessage = "Failed to generate post"
)

// Request is one generation request
type Request struct {
	UserID  uuid.UUID
	Topic   string
	Context string
}

// Result is returned to the caller after a successful generation
type Result struct {
	Variations    models.Variations    `json:"variations"`
	PostID        *uuid.UUID           `json:"postId"`
	TemplatesUsed []models.TemplateRef `json:"templatesUsed"`
}

// Service runs the retrieval-augmented generation pipeline
type Service struct {
	users     database.UserRepositoryInterface
	voices    database.VoiceProfileRepositoryInterface
	templates database.TemplateRepositoryInterface
	community database.CommunityPostRepositoryInterface
	memory    database.UserMemoryRepositoryInterface
	posts     database.GeneratedPostRepositoryInterface
	embedder  ai.Embedder
	generator ai.TextGenerator
	logger    *zap.Logger
}

// Deps groups the collaborators of a Service
type Deps struct {
	Users     database.UserRepositoryInterface
	Voices    database.VoiceProfileRepositoryInterface
	Templates database.TemplateRepositoryInterface
	Community database.CommunityPostRepositoryInterface
	Memory    database.UserMemoryRepositoryInterface
	Posts     database.GeneratedPostRepositoryInterface
	Embedder  ai.Embedder
	Generator ai.TextGenerator
	Logger    *zap.Logger
}

// NewService creates a generation service
func NewService(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:     d.Users,
		voices:    d.Voices,
		templates: d.Templates,
		community: d.Community,
		memory:    d.Memory,
		posts:     d.Posts,
		embedder:  d.Embedder,
		generator: d.Generator,
		logger:    log,
	}
}

// ValidateTopic returns the trimmed topic or a validation error
func ValidateTopic(topic string) (string, error) {
	trimmed := strings.TrimSpace(topic)
	if utf8.RuneCountInString(trimmed) < MinTopicLength {
		return "", apperr.Validation(fmt.Sprintf("Topic must be at least %d characters", MinTopicLength))
	}
	return trimmed, nil
}

// Generate reserves quota, retrieves context, generates three variations and
// persists the balanced one. The reservation is released if any step before
// generation completes fails.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	topic, err := ValidateTopic(req.Topic)
	if err != nil {
		return nil, err
	}
	extra := strings.TrimSpace(req.Context)
	start := time.Now()
	ctx = ai.WithUserID(ctx, req.UserID.String())

	user, err := s.users.ConsumeGeneration(ctx, req.UserID)
	switch {
	case errors.Is(err, database.ErrQuotaExhausted):
		return nil, apperr.QuotaExceeded(QuotaExceededMessage)
	case errors.Is(err, sql.ErrNoRows):
		return nil, apperr.NotFound("User not found")
	case err != nil:
		return nil, apperr.Persistence(GenerateFailedMessage, fmt.Errorf("reserve generation: %w", err))
	}
	s.logger.Debug("quota_reserved",
		zap.String("user_id", req.UserID.String()),
		zap.Int("posts_generated_this_month", user.PostsGeneratedThisMonth),
		zap.Int("posts_limit", user.PostsLimit),
	)

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := s.users.ReleaseGeneration(context.WithoutCancel(ctx), req.UserID); err != nil {
			s.logger.Error("quota_release_failed",
				zap.String("user_id", req.UserID.String()),
				zap.String("error", logger.SanitizeError(err)),
			)
		}
	}()

	in, err := s.retrieve(ctx, req.UserID, topic, extra)
	if err != nil {
		return nil, err
	}

	variations, err := s.generateVariations(ctx, in)
	if err != nil {
		return nil, err
	}
	committed = true

	result := &Result{
		Variations:    variations,
		TemplatesUsed: make([]models.TemplateRef, 0, len(in.Templates)),
	}
	templateIDs := make([]uuid.UUID, 0, len(in.Templates))
	for _, t := range in.Templates {
		result.TemplatesUsed = append(result.TemplatesUsed, models.TemplateRef{Name: t.Name, Category: t.Category})
		templateIDs = append(templateIDs, t.ID)
	}

	post := &models.GeneratedPost{
		UserID:           req.UserID,
		InputTopic:       topic,
		GeneratedContent: variations.Get(models.PersistedVariation),
		VariationType:    models.PersistedVariation,
		TemplatesUsed:    templateIDs,
	}
	if extra != "" {
		post.InputContext = &extra
	}
	if err := s.posts.Create(ctx, post); err != nil {
		s.logger.Error("generated_post_save_failed",
			zap.String("user_id", req.UserID.String()),
			zap.String("error", logger.SanitizeError(err)),
		)
	} else {
		id := post.ID
		result.PostID = &id
	}

	s.logger.Info("generation_completed",
		zap.String("user_id", req.UserID.String()),
		zap.String("topic", logger.SanitizeTopic(topic)),
		zap.Int("templates", len(in.Templates)),
		zap.Int("community_posts", len(in.CommunityPosts)),
		zap.Int("memories", len(in.Memories)),
		zap.Bool("persisted", result.PostID != nil),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()),
	)
	return result, nil
}

// retrieve loads the voice profile, embeds the query and runs the three similarity searches
func (s *Service) retrieve(ctx context.Context, userID uuid.UUID, topic, extra string) (in PromptInput, err error) {
	ctx, span := telemetry.StartSpan(ctx, "generation.retrieve")
	defer func() { telemetry.EndSpan(span, err) }()

	in = PromptInput{Topic: topic, Context: extra}

	voice, err := s.voices.GetByUserID(ctx, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		voice = nil
	case err != nil:
		return in, apperr.Persistence(GenerateFailedMessage, fmt.Errorf("load voice profile: %w", err))
	}
	in.Voice = voice

	vec, err := s.embedder.Embed(ctx, topic+" "+extra)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return in, err
		}
		return in, apperr.Upstream(GenerateFailedMessage, fmt.Errorf("embed topic: %w", err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		templates, err := s.templates.Match(gctx, vec, SearchThreshold, SearchLimit)
		if err != nil {
			return apperr.Persistence(GenerateFailedMessage, fmt.Errorf("template search: %w", err))
		}
		in.Templates = templates
		return nil
	})
	g.Go(func() error {
		posts, err := s.community.Match(gctx, vec, SearchThreshold, SearchLimit)
		if err != nil {
			return apperr.Persistence(GenerateFailedMessage, fmt.Errorf("community post search: %w", err))
		}
		in.CommunityPosts = posts
		return nil
	})
	g.Go(func() error {
		memories, err := s.memory.Match(gctx, userID, vec, SearchLimit)
		if err != nil {
			return apperr.Persistence(GenerateFailedMessage, fmt.Errorf("user memory search: %w", err))
		}
		in.Memories = memories
		return nil
	})
	if err := g.Wait(); err != nil {
		return in, err
	}
	return in, nil
}

// generateVariations runs one generation per variation concurrently. The first
// failure cancels the others and fails the whole request.
func (s *Service) generateVariations(ctx context.Context, in PromptInput) (variations models.Variations, err error) {
	ctx, span := telemetry.StartSpan(ctx, "generation.generate_variations")
	defer func() { telemetry.EndSpan(span, err) }()

	outputs := make([]string, len(models.AllVariations))

	g, gctx := errgroup.WithContext(ctx)
	for i, variation := range models.AllVariations {
		prompt := AssemblePrompt(in, variation)
		g.Go(func() error {
			text, err := s.generator.Generate(ai.WithVariation(gctx, string(variation)), prompt)
			if err != nil {
				return apperr.Upstream(GenerateFailedMessage, fmt.Errorf("%s variation: %w", variation, err))
			}
			outputs[i] = strings.TrimSpace(text)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return variations, err
	}
	for i, variation := range models.AllVariations {
		variations.Set(variation, outputs[i])
	}
	return variations, nil
}
