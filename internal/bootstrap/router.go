package bootstrap

import (
	"log"
	"net/http"

	"github.com/go-sallagate/sallagate/internal/config"
	"github.com/go-sallagate/sallagate/internal/metrics"
	"github.com/go-sallagate/sallagate/internal/middleware"
	"github.com/go-sallagate/sallagate/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	db *store.Store,
	h handlerSet,
	recorder metrics.Recorder,
	rateLimiters *middleware.RateLimiterSet,
) *gin.Engine {
	setupGinMode(cfg)
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Logger(), gin.Recovery())

	// Health check endpoint
	r.GET("/health", createHealthCheckHandler(db))

	setupMetricsEndpoint(r, cfg)
	setupAllRoutes(r, cfg, h, rateLimiters)

	logServerStartup(cfg)

	return r
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuth(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(
	r *gin.Engine,
	cfg *config.Config,
	h handlerSet,
	rateLimiters *middleware.RateLimiterSet,
) {
	webhookLimiter := passthrough
	rawTokenLimiter := passthrough
	if rateLimiters != nil {
		webhookLimiter = rateLimiters.Webhook
		rawTokenLimiter = rateLimiters.RawToken
	}

	// Salla webhook delivery endpoint (public, signature-verified)
	r.POST("/salla/webhook", webhookLimiter, h.webhook.Receive)

	api := r.Group("/api")
	{
		// Token metadata (public, never returns token material)
		api.GET("/token/:merchantId", h.token.Metadata)

		// Spreadsheet client endpoints
		api.POST("/excel/token", rawTokenLimiter, h.token.Raw)
		api.GET("/excel/data", h.data.Dataset)

		// Development and inspection endpoints
		if !cfg.IsProduction {
			api.GET("/dev/status", h.dev.Status)
			api.GET("/dev/tokens", h.dev.Tokens)
			log.Printf("Dev endpoints enabled at /api/dev/*")
		}
	}
}

func passthrough(c *gin.Context) {
	c.Next()
}

// createHealthCheckHandler creates the health check endpoint handler
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := db.Health(); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	gin.SetMode(ginModeMap[cfg.IsProduction])
	log.Printf("Gin mode: %s", ginModeLogMessage[cfg.IsProduction])
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

var ginModeLogMessage = map[bool]string{
	true:  "Release (production)",
	false: "Debug (development)",
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("Salla webhook server starting on %s", cfg.ServerAddr)
	log.Printf("Webhook URL: %s/salla/webhook", cfg.BaseURL)
	log.Printf("Database driver: %s", cfg.DatabaseDriver)
}
