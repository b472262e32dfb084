package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/go-sallagate/sallagate/internal/config"
	"github.com/go-sallagate/sallagate/internal/metrics"
	"github.com/go-sallagate/sallagate/internal/services"
	"github.com/go-sallagate/sallagate/internal/store"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	tokens  *services.TokenService
	cfg     *config.Config
	metrics metrics.Recorder
}

func NewTokenHandler(
	tokens *services.TokenService,
	cfg *config.Config,
	recorder metrics.Recorder,
) *TokenHandler {
	return &TokenHandler{
		tokens:  tokens,
		cfg:     cfg,
		metrics: recorder,
	}
}

// Metadata handles GET /api/token/:merchantId. The response never contains
// the token value; it exists so the spreadsheet client can check connection
// state before asking for the credential itself.
func (h *TokenHandler) Metadata(c *gin.Context) {
	merchantID := c.Param("merchantId")

	rec, err := h.tokens.Fetch(c.Request.Context(), merchantID)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		h.metrics.RecordTokenQuery("metadata", metrics.ResultFailure)
		c.JSON(http.StatusNotFound, h.notFoundBody(c, merchantID))
		return
	case err != nil:
		h.metrics.RecordTokenQuery("metadata", metrics.ResultError)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve token"})
		return
	}

	h.metrics.RecordTokenQuery("metadata", metrics.ResultSuccess)
	c.JSON(http.StatusOK, gin.H{
		"merchant_id": rec.MerchantID,
		"expires_at":  rec.ExpiresAt.Format(time.RFC3339),
		"scope":       rec.Scope,
		"token_type":  rec.TokenType,
		"is_valid":    time.Now().Before(rec.ExpiresAt),
	})
}

// rawTokenRequest is the privileged query body. The caller secret is
// distinct from the webhook signing secret so compromising one does not
// expose the other's capability.
type rawTokenRequest struct {
	MerchantID   string `json:"merchantId"`
	ClientSecret string `json:"clientSecret"`
}

// Raw handles POST /api/excel/token. The caller secret is checked before
// the store is ever touched, so an unauthorized caller cannot learn which
// merchants exist from timing or response differences.
func (h *TokenHandler) Raw(c *gin.Context) {
	var req rawTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordTokenQuery("raw", metrics.ResultFailure)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if !h.callerAuthorized(req.ClientSecret) {
		h.metrics.RecordTokenQuery("raw", metrics.ResultFailure)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid client secret"})
		return
	}

	rec, err := h.tokens.Fetch(c.Request.Context(), req.MerchantID)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		h.metrics.RecordTokenQuery("raw", metrics.ResultFailure)
		c.JSON(http.StatusNotFound, h.notFoundBody(c, req.MerchantID))
		return
	case err != nil:
		h.metrics.RecordTokenQuery("raw", metrics.ResultError)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve token"})
		return
	}

	h.metrics.RecordTokenQuery("raw", metrics.ResultSuccess)
	c.JSON(http.StatusOK, gin.H{
		"access_token": rec.AccessToken,
		"expires_at":   rec.ExpiresAt.Format(time.RFC3339),
		"scope":        rec.Scope,
	})
}

// callerAuthorized compares the supplied secret in constant time. An
// unconfigured caller secret keeps the privileged path closed rather than
// open.
func (h *TokenHandler) callerAuthorized(supplied string) bool {
	if h.cfg.CallerSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(h.cfg.CallerSecret)) == 1
}

// notFoundBody reports a missing/expired token with a remediation hint. A
// merchant that installed but never authorized gets the same error with the
// installed flag set, so the client can distinguish "never connected" from
// "needs re-authorization".
func (h *TokenHandler) notFoundBody(c *gin.Context, merchantID string) gin.H {
	body := gin.H{
		"error":   "No valid token found",
		"message": "Merchant needs to install/reinstall the app",
	}
	if _, err := h.tokens.GetInstallation(c.Request.Context(), merchantID); err == nil {
		body["installed"] = true
	}
	return body
}
