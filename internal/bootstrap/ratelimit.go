package bootstrap

import (
	"fmt"
	"log"

	"github.com/go-sallagate/sallagate/internal/config"
	"github.com/go-sallagate/sallagate/internal/middleware"
)

// initializeRateLimiters builds the per-route rate limiters, or nil when
// rate limiting is disabled.
func initializeRateLimiters(cfg *config.Config) (*middleware.RateLimiterSet, error) {
	if !cfg.RateLimitEnabled {
		log.Printf("Rate limiting disabled")
		return nil, nil
	}

	set, err := middleware.NewRateLimiterSet(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rate limiting: %w", err)
	}

	log.Printf("Rate limiting enabled (%s store): webhook %d/min, raw token %d/min",
		cfg.RateLimitStore, cfg.WebhookRequestsPerMinute, cfg.RawTokenRequestsPerMinute)
	return set, nil
}
