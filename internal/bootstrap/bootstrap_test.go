package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-sallagate/sallagate/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerAddr:      ":3002",
		BaseURL:         "http://localhost:3002",
		DatabaseDriver:  "sqlite",
		DatabaseDSN:     ":memory:",
		DBInitTimeout:   10 * time.Second,
		SallaAPIBaseURL: "https://api.salla.dev/admin/v2",
		SallaAPITimeout: 15 * time.Second,
		SallaAPIPerPage: 20,
		DataCacheTTL:    time.Minute,
		RateLimitStore:  config.RateLimitStoreMemory,
	}
}

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := &Application{Config: testConfig()}
	require.NoError(t, app.initializeInfrastructure(context.Background()))
	app.initializeBusinessLayer()
	require.NoError(t, app.initializeHTTPLayer())
	return app
}

func TestInitializeDatabase(t *testing.T) {
	db, err := initializeDatabase(context.Background(), testConfig())
	require.NoError(t, err)
	assert.NoError(t, db.Health())
}

func TestInitializeDatabaseInvalidDriver(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseDriver = "oracle"
	_, err := initializeDatabase(context.Background(), cfg)
	assert.Error(t, err)
}

func TestInitializeRateLimitersDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitEnabled = false

	set, err := initializeRateLimiters(cfg)
	require.NoError(t, err)
	assert.Nil(t, set)
}

func TestApplicationWiring(t *testing.T) {
	app := newTestApplication(t)

	assert.NotNil(t, app.TokenService)
	assert.NotNil(t, app.Dispatcher)
	assert.NotNil(t, app.SallaClient)
	assert.NotNil(t, app.Router)
	assert.Equal(t, ":3002", app.Server.Addr)
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApplication(t)

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}

func TestRouterServesWebhookRoute(t *testing.T) {
	app := newTestApplication(t)

	// An unsigned delivery against an unconfigured secret parses the body;
	// garbage still gets a 400, not a 404.
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/salla/webhook", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDevRoutesDisabledInProduction(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	cfg.IsProduction = true

	app := &Application{Config: cfg}
	require.NoError(t, app.initializeInfrastructure(context.Background()))
	app.initializeBusinessLayer()
	require.NoError(t, app.initializeHTTPLayer())

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dev/status", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpointGatedByToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	cfg.MetricsEnabled = true
	cfg.MetricsToken = "scrape-token"

	app := &Application{Config: cfg}
	require.NoError(t, app.initializeInfrastructure(context.Background()))
	app.initializeBusinessLayer()
	require.NoError(t, app.initializeHTTPLayer())

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer scrape-token")
	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
