package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	AppURL           string
	FrontendURL      string
	EnableHSTS       bool
	CronSecret       string
	AuthIssuer       string
	AuthJWKSURL      string
	AIProvider       string
	AIModel          string
	AIBaseURL        string
	OpenAIKey        string
	AnthropicKey     string
	EmbeddingModel   string
	AICallTimeout    time.Duration
	AIMaxRetries     int
	AIMaxRetryDelay  time.Duration
	RedisURL         string
	RateLimit        string
	GenerateLimit    string
	EmbedCacheTTL    time.Duration
	TrendingCacheTTL time.Duration
	TrendingFeeds    []string
	RabbitMQURL      string
	RabbitMQPrefetch int
	StripeSecretKey  string
	StripePriceID    string
	FreePostsLimit   int
	ProPostsLimit    int
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read first when present; real environment
// variables take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		AppURL:           strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		CronSecret:       getEnv("CRON_SECRET", ""),
		AuthIssuer:       getEnv("AUTH_ISSUER", ""),
		AuthJWKSURL:      getEnv("AUTH_JWKS_URL", ""),
		AIProvider:       getEnv("AI_PROVIDER", "openai"),
		AIModel:          getEnv("AI_MODEL", ""),
		AIBaseURL:        getEnv("AI_BASE_URL", ""),
		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		AnthropicKey:     getEnv("ANTHROPIC_API_KEY", ""),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		AICallTimeout:    getEnvDuration("AI_CALL_TIMEOUT", 45*time.Second),
		AIMaxRetries:     getEnvInt("AI_MAX_RETRIES", 2),
		AIMaxRetryDelay:  getEnvDuration("AI_MAX_RETRY_DELAY", 5*time.Second),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RateLimit:        getEnv("RATE_LIMIT", "60-M"),
		GenerateLimit:    getEnv("GENERATE_RATE_LIMIT", "10-M"),
		EmbedCacheTTL:    getEnvDuration("EMBEDDING_CACHE_TTL", 24*time.Hour),
		TrendingCacheTTL: getEnvDuration("TRENDING_CACHE_TTL", 5*time.Minute),
		TrendingFeeds:    getEnvList("TRENDING_FEEDS"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		StripeSecretKey:  getEnv("STRIPE_SECRET_KEY", ""),
		StripePriceID:    getEnv("STRIPE_PRICE_ID", ""),
		FreePostsLimit:   getEnvInt("FREE_POSTS_LIMIT", 5),
		ProPostsLimit:    getEnvInt("PRO_POSTS_LIMIT", 100),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	switch cfg.AIProvider {
	case "openai", "anthropic":
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q (expected openai or anthropic)", cfg.AIProvider)
	}

	return cfg, nil
}

// ValidateServer checks the settings the API server cannot start without
func (c *Config) ValidateServer() error {
	var errs []error
	if c.OpenAIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required for embeddings"))
	}
	if c.AIProvider == "anthropic" && c.AnthropicKey == "" {
		errs = append(errs, errors.New("ANTHROPIC_API_KEY is required when AI_PROVIDER=anthropic"))
	}
	if c.CronSecret == "" {
		errs = append(errs, errors.New("CRON_SECRET is required"))
	}
	if c.AuthIssuer == "" || c.AuthJWKSURL == "" {
		errs = append(errs, errors.New("AUTH_ISSUER and AUTH_JWKS_URL are required"))
	}
	return errors.Join(errs...)
}

// ValidateWorker checks the settings the background worker cannot start without
func (c *Config) ValidateWorker() error {
	var errs []error
	if c.RabbitMQURL == "" {
		errs = append(errs, errors.New("RABBITMQ_URL is required for the worker"))
	}
	if c.OpenAIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required for embeddings"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blanks
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
