package commands

import (
	"fmt"
	"os"

	"github.com/benvon/postcraft/internal/config"
	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/logger"
	"github.com/benvon/postcraft/internal/services/ai"
	"go.uber.org/zap"
)

// env bundles what most commands need: configuration, a logger and the database
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB
}

func openEnv(verbose bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewDevelopmentLogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &env{cfg: cfg, logger: log, db: db}, nil
}

func (e *env) close() {
	if err := e.db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
	logger.Sync(e.logger)
}

// aiClients builds uncached clients; CLI runs are one-shot so the Redis cache is skipped
func aiClients(cfg *config.Config, log *zap.Logger) (*ai.Clients, error) {
	return ai.NewClients(ai.ClientOptions{
		Provider:       cfg.AIProvider,
		Model:          cfg.AIModel,
		BaseURL:        cfg.AIBaseURL,
		OpenAIKey:      cfg.OpenAIKey,
		AnthropicKey:   cfg.AnthropicKey,
		EmbeddingModel: cfg.EmbeddingModel,
		Retry: ai.RetryPolicy{
			MaxRetries:  cfg.AIMaxRetries,
			MaxDelay:    cfg.AIMaxRetryDelay,
			CallTimeout: cfg.AICallTimeout,
		},
		Logger: log,
	})
}
