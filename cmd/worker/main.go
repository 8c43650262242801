package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/postcraft/internal/cache"
	"github.com/benvon/postcraft/internal/config"
	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/logger"
	"github.com/benvon/postcraft/internal/queue"
	"github.com/benvon/postcraft/internal/services/ai"
	"github.com/benvon/postcraft/internal/services/memory"
	"github.com/benvon/postcraft/internal/services/trending"
	"github.com/benvon/postcraft/internal/telemetry"
	"github.com/benvon/postcraft/internal/workers"
	"go.uber.org/zap"
)

// Set via -ldflags at build time
var version = "dev"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewServiceLogger(telemetry.ServiceNameWorker, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync(zapLogger)

	zapLogger.Info("Starting worker",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
	)

	// Cancelled on SIGINT/SIGTERM; in-flight jobs still settle
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		tp, err := telemetry.InitTracer(ctx, telemetry.Options{
			ServiceName:    telemetry.ServiceNameWorker,
			ServiceVersion: version,
			Endpoint:       cfg.OTELEndpoint,
		})
		if err != nil {
			zapLogger.Warn("Failed to initialize tracer", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Warn("Failed to shutdown tracer", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("Failed to close database connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to database")

	// Redis backs the embedding cache and trending-topic invalidation
	redisCtx, redisCancel := context.WithTimeout(ctx, 10*time.Second)
	redisClient, err := cache.NewRedisClient(redisCtx, cfg.RedisURL)
	redisCancel()
	if err != nil {
		zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("Failed to close Redis connection", zap.Error(err))
		}
	}()

	postRepo := database.NewGeneratedPostRepository(db)
	memoryRepo := database.NewUserMemoryRepository(db)
	topicRepo := database.NewTrendingTopicRepository(db)

	jobQueue, err := queue.ConnectWithRetry(ctx, cfg.RabbitMQURL, 10, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("Failed to close RabbitMQ connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to RabbitMQ",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	clients, err := ai.NewClients(ai.ClientOptions{
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
		EmbedCache:    cache.New(redisClient, "postcraft:embed:"),
		EmbedCacheTTL: cfg.EmbedCacheTTL,
		Logger:        zapLogger,
		DebugMode:     debugMode,
	})
	if err != nil {
		zapLogger.Fatal("Failed to initialize AI clients", zap.Error(err))
	}

	zapLogger.Info("Initialized AI provider",
		zap.String("provider", cfg.AIProvider),
		zap.String("model", cfg.AIModel),
	)

	ingester := memory.NewIngester(postRepo, memoryRepo, clients.Embedder, zapLogger)
	refresher := trending.NewRefresher(
		trending.NewFeedFetcher(nil, cfg.TrendingFeeds, zapLogger),
		clients.Generator,
		clients.Embedder,
		topicRepo,
		cache.New(redisClient, "postcraft:"),
		zapLogger,
	)
	processor := workers.NewJobProcessor(ingester, refresher, jobQueue, zapLogger)

	// Start consuming messages
	deliveries, queueErrs, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("Failed to start consuming messages", zap.Error(err))
	}

	zapLogger.Info("Worker started, consuming messages from queue",
		zap.Int("concurrency", cfg.RabbitMQPrefetch),
	)

	if err := processor.Run(ctx, deliveries, queueErrs, cfg.RabbitMQPrefetch); err != nil {
		zapLogger.Fatal("Worker stopped unexpectedly", zap.Error(err))
	}

	zapLogger.Info("Worker stopped")
}
