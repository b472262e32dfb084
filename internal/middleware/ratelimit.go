package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-sallagate/sallagate/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterRedis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimiterSet holds the per-route rate limit middlewares. The webhook
// endpoint and the raw-token endpoint get separate budgets: Salla's
// delivery bursts must not let a credential-guessing client ride along.
type RateLimiterSet struct {
	Webhook  gin.HandlerFunc
	RawToken gin.HandlerFunc

	// redisClient is non-nil only for the redis store; the lifecycle
	// manager closes it on shutdown.
	redisClient *redis.Client
}

// Close releases the redis connection if one was opened.
func (s *RateLimiterSet) Close() error {
	if s.redisClient == nil {
		return nil
	}
	return s.redisClient.Close()
}

// NewRateLimiterSet builds rate limiters backed by the configured store.
// The memory store is per-instance; use redis when running more than one
// replica behind a load balancer.
func NewRateLimiterSet(cfg *config.Config) (*RateLimiterSet, error) {
	set := &RateLimiterSet{}

	var newStore func(prefix string) (limiter.Store, error)

	switch cfg.RateLimitStore {
	case config.RateLimitStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimitRedisAddr,
			Password: cfg.RateLimitRedisPassword,
			DB:       cfg.RateLimitRedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RateLimitRedisAddr, err)
		}
		set.redisClient = client

		newStore = func(prefix string) (limiter.Store, error) {
			return limiterRedis.NewStoreWithOptions(client, limiter.StoreOptions{
				Prefix:          prefix,
				CleanUpInterval: cfg.RateLimitCleanupInterval,
			})
		}

	default:
		newStore = func(string) (limiter.Store, error) {
			return memory.NewStore(), nil
		}
	}

	var err error
	if set.Webhook, err = newLimiter(newStore, "ratelimit:webhook", cfg.WebhookRequestsPerMinute); err != nil {
		return nil, err
	}
	if set.RawToken, err = newLimiter(newStore, "ratelimit:token", cfg.RawTokenRequestsPerMinute); err != nil {
		return nil, err
	}
	return set, nil
}

func newLimiter(
	newStore func(prefix string) (limiter.Store, error),
	prefix string,
	requestsPerMinute int,
) (gin.HandlerFunc, error) {
	store, err := newStore(prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}

	instance := limiter.New(store, limiter.Rate{
		Period: time.Minute,
		Limit:  int64(requestsPerMinute),
	})

	return mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":   "rate_limit_exceeded",
			"message": "Too many requests. Please try again later.",
		})
		c.Abort()
	})), nil
}
