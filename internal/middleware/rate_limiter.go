package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"JobCard-backend/internal/config"
	"JobCard-backend/internal/utilities"
)

const defaultRequestsPerSecond = 5

func keyFunc(c *gin.Context) string {
	principal, err := utilities.ExtractPrincipal(c)
	if err != nil || principal.Subject == "" {
		return "ip: " + c.ClientIP()
	}
	return "user: " + principal.Role + ":" + principal.Subject
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.Header("Retry-After", fmt.Sprintf("%.0f", time.Until(info.ResetTime).Seconds()))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, utilities.ErrorResponse{
		Message: "Too many requests. Please try again later.",
	})
}

// RateLimiterMiddleware limits every key to reqPerSec requests per second
// counted in store.
func RateLimiterMiddleware(store ratelimit.Store) gin.HandlerFunc {
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		KeyFunc:      keyFunc,
		ErrorHandler: errorHandler,
	})
}

// NewRateLimitStore builds the counter store: Redis when a URL is configured
// so that every replica shares the counters, in memory otherwise.
// The returned client is nil for the in-memory store.
func NewRateLimitStore(cfg config.RateLimitConfig) (ratelimit.Store, *redis.Client, error) {
	limit := cfg.RequestsPerSecond
	if limit <= 0 {
		limit = defaultRequestsPerSecond
	}

	if cfg.RedisURL == "" {
		return ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  time.Second,
			Limit: uint(limit),
		}), nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	slog.Info("rate limiter uses redis", "addr", opts.Addr, "limit", limit)
	return ratelimit.RedisStore(&ratelimit.RedisOptions{
		RedisClient: client,
		Rate:        time.Second,
		Limit:       uint(limit),
	}), client, nil
}
