package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-sallagate/sallagate/internal/config"
	"github.com/go-sallagate/sallagate/internal/metrics"
	"github.com/go-sallagate/sallagate/internal/models"
	"github.com/go-sallagate/sallagate/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCallerSecret = "test-caller-secret"

func newTokenRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *services.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := services.NewTokenService(newTestStore(t), metrics.NewNoopMetrics())
	h := NewTokenHandler(tokens, cfg, metrics.NewNoopMetrics())

	r := gin.New()
	r.GET("/api/token/:merchantId", h.Metadata)
	r.POST("/api/excel/token", h.Raw)
	return r, tokens
}

func seedToken(t *testing.T, tokens *services.TokenService, merchantID string) {
	t.Helper()
	_, err := tokens.Upsert(context.Background(), merchantID, models.Grant{
		AccessToken:        "tok1",
		RefreshToken:       "ref1",
		Scope:              "orders.read products.read",
		TokenType:          "Bearer",
		ExpiresAtEpochSecs: time.Now().Add(14 * 24 * time.Hour).Unix(),
	})
	require.NoError(t, err)
}

func TestTokenMetadataNeverExposesToken(t *testing.T) {
	r, tokens := newTokenRouter(t, &config.Config{CallerSecret: testCallerSecret})
	seedToken(t, tokens, "693104445")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/token/693104445", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_valid":true`)
	assert.Contains(t, w.Body.String(), `"merchant_id":"693104445"`)
	assert.NotContains(t, w.Body.String(), "tok1")
	assert.NotContains(t, w.Body.String(), "ref1")
}

func TestTokenMetadataNotFound(t *testing.T) {
	r, _ := newTokenRouter(t, &config.Config{CallerSecret: testCallerSecret})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/token/999999", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "No valid token found")
}

func TestTokenMetadataNotFoundWithInstallation(t *testing.T) {
	r, tokens := newTokenRouter(t, &config.Config{CallerSecret: testCallerSecret})
	_, err := tokens.RecordInstallation(context.Background(), "693104445", models.InstallPayload{
		AppName:   "Easy Mode",
		StoreType: "store",
		AppScopes: "orders.read",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/token/693104445", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"installed":true`)
}

func TestRawTokenWithValidSecret(t *testing.T) {
	r, tokens := newTokenRouter(t, &config.Config{CallerSecret: testCallerSecret})
	seedToken(t, tokens, "693104445")

	body := `{"merchantId": "693104445", "clientSecret": "` + testCallerSecret + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/excel/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"tok1"`)
}

func TestRawTokenWithWrongSecret(t *testing.T) {
	r, tokens := newTokenRouter(t, &config.Config{CallerSecret: testCallerSecret})
	seedToken(t, tokens, "693104445")

	body := `{"merchantId": "693104445", "clientSecret": "wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/excel/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid client secret")
	assert.NotContains(t, w.Body.String(), "tok1")
}

func TestRawTokenClosedWhenSecretUnconfigured(t *testing.T) {
	r, tokens := newTokenRouter(t, &config.Config{})
	seedToken(t, tokens, "693104445")

	body := `{"merchantId": "693104445", "clientSecret": ""}`
	req := httptest.NewRequest(http.MethodPost, "/api/excel/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRawTokenUnknownMerchant(t *testing.T) {
	r, _ := newTokenRouter(t, &config.Config{CallerSecret: testCallerSecret})

	body := `{"merchantId": "999999", "clientSecret": "` + testCallerSecret + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/excel/token", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "install/reinstall")
}

func TestRawTokenInvalidBody(t *testing.T) {
	r, _ := newTokenRouter(t, &config.Config{CallerSecret: testCallerSecret})

	req := httptest.NewRequest(http.MethodPost, "/api/excel/token", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
