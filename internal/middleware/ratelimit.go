package middleware

import (
	"fmt"
	"net/http"

	"github.com/benvon/postcraft/internal/apperr"
	"github.com/benvon/postcraft/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// RateLimitKey identifies the caller: the user ID when authenticated, otherwise the client IP
func RateLimitKey(r *http.Request) string {
	if user := request.UserFromContext(r); user != nil {
		return "user:" + user.ID.String()
	}
	return "ip:" + request.ClientIP(r)
}

// RateLimit returns ulule/limiter middleware backed by Redis. rate uses the
// limiter format ("60-M"); name namespaces the counters so separate limits do
// not share buckets.
func RateLimit(client redis.UniversalClient, name, rate string, log *zap.Logger) (func(http.Handler) http.Handler, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q for %s limiter: %w", rate, name, err)
	}
	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: "postcraft:ratelimit:" + name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s rate limit store: %w", name, err)
	}

	mw := stdlibmw.NewMiddleware(limiter.New(store, parsed),
		stdlibmw.WithKeyGetter(RateLimitKey),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			WriteAppError(w, r, apperr.RateLimited("Rate limit exceeded, try again later"), log)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("rate_limit_store_error", zap.String("limiter", name), zap.Error(err))
			WriteAppError(w, r, err, log)
		}),
	)
	return mw.Handler, nil
}
