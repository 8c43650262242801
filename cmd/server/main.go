package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/postcraft/internal/cache"
	"github.com/benvon/postcraft/internal/config"
	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/handlers"
	"github.com/benvon/postcraft/internal/logger"
	"github.com/benvon/postcraft/internal/middleware"
	"github.com/benvon/postcraft/internal/queue"
	"github.com/benvon/postcraft/internal/services/ai"
	"github.com/benvon/postcraft/internal/services/auth"
	"github.com/benvon/postcraft/internal/services/billing"
	"github.com/benvon/postcraft/internal/services/generation"
	"github.com/benvon/postcraft/internal/services/trending"
	"github.com/benvon/postcraft/internal/services/voice"
	"github.com/benvon/postcraft/internal/telemetry"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// Set via -ldflags at build time
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

const (
	generationTimeout = 2 * time.Minute
	cronTimeout       = 5 * time.Minute
	queueConnAttempts = 5
)

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.ServerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewServiceLogger(telemetry.ServiceNameAPI, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync(zapLogger)

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_provider", cfg.AIProvider),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// Initialize OpenTelemetry if enabled
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), telemetry.Options{
				ServiceName:    telemetry.ServiceNameAPI,
				ServiceVersion: version,
				Endpoint:       cfg.OTELEndpoint,
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Connect to database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	// Connect to Redis (rate limits, embedding and trending caches)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := cache.NewRedisClient(redisCtx, cfg.RedisURL)
	redisCancel()
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")

	// RabbitMQ is optional for the API; without it engagement updates skip memory ingestion
	var jobQueue *queue.RabbitMQQueue
	if cfg.RabbitMQURL != "" {
		jobQueue, err = queue.ConnectWithRetry(context.Background(), cfg.RabbitMQURL, queueConnAttempts, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
	} else {
		zapLogger.Warn("rabbitmq_not_configured_memory_ingest_disabled")
	}

	// Repositories
	userRepo := database.NewUserRepository(db)
	voiceRepo := database.NewVoiceProfileRepository(db)
	templateRepo := database.NewTemplateRepository(db)
	communityRepo := database.NewCommunityPostRepository(db)
	memoryRepo := database.NewUserMemoryRepository(db)
	postRepo := database.NewGeneratedPostRepository(db)
	topicRepo := database.NewTrendingTopicRepository(db)

	// AI clients
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
		zapLogger.Fatal("failed_to_create_ai_clients", zap.Error(err))
	}

	// Services
	topicCache := cache.New(redisClient, "postcraft:")
	generator := generation.NewService(generation.Deps{
		Users:     userRepo,
		Voices:    voiceRepo,
		Templates: templateRepo,
		Community: communityRepo,
		Memory:    memoryRepo,
		Posts:     postRepo,
		Embedder:  clients.Embedder,
		Generator: clients.Generator,
		Logger:    zapLogger,
	})
	voiceAnalyzer := voice.NewAnalyzer(voiceRepo, clients.Generator, clients.Embedder, zapLogger)
	trendingService := trending.NewService(topicRepo, topicCache, cfg.TrendingCacheTTL, zapLogger)
	refresher := trending.NewRefresher(
		trending.NewFeedFetcher(nil, cfg.TrendingFeeds, zapLogger),
		clients.Generator,
		clients.Embedder,
		topicRepo,
		topicCache,
		zapLogger,
	)

	// Token verification
	verifier := auth.NewVerifier(auth.NewJWKSManager(nil), cfg.AuthJWKSURL, cfg.AuthIssuer)

	// Create router
	r := mux.NewRouter()
	if cfg.OTELEnabled && cfg.OTELEndpoint != "" {
		r.Use(otelmux.Middleware(telemetry.ServiceNameAPI))
	}

	// Middleware runs in registration order, outermost first
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(zapLogger))
	r.Use(middleware.Audit(zapLogger))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, zapLogger))
	r.Use(middleware.ContentType(zapLogger))

	// Public routes
	checks := map[string]handlers.CheckFunc{
		"database": db.PingContext,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}
	if jobQueue != nil {
		checks["rabbitmq"] = jobQueue.HealthCheck
	}
	handlers.NewHealthChecker(checks, zapLogger).RegisterRoutes(r)
	r.HandleFunc("/version", handlers.VersionHandler(handlers.VersionInfo{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
	})).Methods("GET")
	handlers.NewOpenAPIHandler(zapLogger).RegisterRoutes(r)

	// Scheduled jobs, authenticated by the shared cron secret
	cron := r.PathPrefix("/api/cron").Subrouter()
	cron.Use(middleware.CronAuth(cfg.CronSecret, zapLogger))
	cron.Use(middleware.Timeout(cronTimeout, zapLogger))
	trendingHandler := handlers.NewTrendingHandler(trendingService, refresher, zapLogger)
	trendingHandler.RegisterCronRoutes(cron)

	// Authenticated API
	generalLimit, err := middleware.RateLimit(redisClient, "api", cfg.RateLimit, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}
	generateLimit, err := middleware.RateLimit(redisClient, "generate", cfg.GenerateLimit, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_generate_rate_limiter", zap.Error(err))
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth(verifier, userRepo, cfg.FreePostsLimit, zapLogger))
	api.Use(generalLimit)

	// LLM-backed routes get a longer deadline than the rest of the API
	llm := api.NewRoute().Subrouter()
	llm.Use(middleware.Timeout(generationTimeout, zapLogger))
	genRoutes := llm.NewRoute().Subrouter()
	genRoutes.Use(generateLimit)
	handlers.NewGenerateHandler(generator, zapLogger).RegisterRoutes(genRoutes)
	handlers.NewVoiceProfileHandler(voiceAnalyzer, zapLogger).RegisterRoutes(llm)

	std := api.NewRoute().Subrouter()
	std.Use(middleware.Timeout(middleware.DefaultRequestTimeout, zapLogger))
	handlers.NewMeHandler().RegisterRoutes(std)
	handlers.NewPostHandler(postRepo, enqueuer(jobQueue), zapLogger).RegisterRoutes(std)
	trendingHandler.RegisterRoutes(std)
	if cfg.StripeSecretKey != "" {
		billingService := billing.NewService(billing.NewStripeGateway(cfg.StripeSecretKey), userRepo, cfg.StripePriceID, cfg.AppURL, zapLogger)
		handlers.NewBillingHandler(billingService, zapLogger).RegisterRoutes(std)
	} else {
		zapLogger.Warn("stripe_not_configured_billing_disabled")
	}

	// CORS wraps the router so preflight requests are answered even when no route matches
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           middleware.CORS(cfg.FrontendURL)(r),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      generationTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// enqueuer avoids handing the post handler a typed nil when RabbitMQ is not configured
func enqueuer(q *queue.RabbitMQQueue) queue.Enqueuer {
	if q == nil {
		return nil
	}
	return q
}
