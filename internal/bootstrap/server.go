package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-sallagate/sallagate/internal/cache"
	"github.com/go-sallagate/sallagate/internal/config"
	"github.com/go-sallagate/sallagate/internal/middleware"
	"github.com/go-sallagate/sallagate/internal/salla"
	"github.com/go-sallagate/sallagate/internal/services"

	"github.com/appleboy/graceful"
)

// gaugeRefreshInterval bounds how stale the stored-token gauges can get
// between webhook deliveries.
const gaugeRefreshInterval = time.Minute

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds the HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addRateLimiterShutdownJob closes the rate limiter's redis connection if
// one was opened
func addRateLimiterShutdownJob(m *graceful.Manager, set *middleware.RateLimiterSet) {
	if set == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := set.Close(); err != nil {
			log.Printf("Error closing rate limit store: %v", err)
			return err
		}
		return nil
	})
}

// addGaugeRefreshJob periodically recomputes the stored-token gauges so
// token expiry shows up in metrics without a triggering webhook delivery
func addGaugeRefreshJob(
	m *graceful.Manager,
	cfg *config.Config,
	tokens *services.TokenService,
) {
	if !cfg.MetricsEnabled {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(gaugeRefreshInterval)
		defer ticker.Stop()

		tokens.RefreshGauge(ctx)

		for {
			select {
			case <-ticker.C:
				tokens.RefreshGauge(ctx)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addCachePurgeJob periodically drops expired dataset cache entries
func addCachePurgeJob(
	m *graceful.Manager,
	cfg *config.Config,
	dataCache *cache.MemoryCache[*salla.Dataset],
) {
	m.AddRunningJob(func(ctx context.Context) error {
		interval := cfg.DataCacheTTL
		if interval < time.Minute {
			interval = time.Minute
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				dataCache.Purge()
			case <-ctx.Done():
				return nil
			}
		}
	})
}
