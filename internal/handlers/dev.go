package handlers

import (
	"net/http"
	"time"

	"github.com/go-sallagate/sallagate/internal/config"
	"github.com/go-sallagate/sallagate/internal/services"
	"github.com/go-sallagate/sallagate/internal/version"

	"github.com/gin-gonic/gin"
)

// DevHandler exposes development and inspection endpoints. Responses never
// include token values, only per-merchant status and expiry.
type DevHandler struct {
	tokens  *services.TokenService
	cfg     *config.Config
	started time.Time
}

func NewDevHandler(tokens *services.TokenService, cfg *config.Config) *DevHandler {
	return &DevHandler{
		tokens:  tokens,
		cfg:     cfg,
		started: time.Now(),
	}
}

// Status handles GET /api/dev/status.
func (h *DevHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"app":                       version.App,
		"version":                   version.String(),
		"uptime":                    time.Since(h.started).Round(time.Second).String(),
		"production":                h.cfg.IsProduction,
		"webhook_secret_configured": h.cfg.WebhookSecretConfigured(),
		"signature_required":        h.cfg.SignatureRequired(),
		"webhook_url":               h.cfg.BaseURL + "/salla/webhook",
		"time":                      time.Now().UTC().Format(time.RFC3339),
	})
}

type tokenSummary struct {
	MerchantID string    `json:"merchant_id"`
	Scope      string    `json:"scope,omitempty"`
	TokenType  string    `json:"token_type"`
	ExpiresAt  time.Time `json:"expires_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	IsValid    bool      `json:"is_valid"`
}

// Tokens handles GET /api/dev/tokens. Newest first, no token material.
func (h *DevHandler) Tokens(c *gin.Context) {
	records, err := h.tokens.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tokens"})
		return
	}

	summaries := make([]tokenSummary, 0, len(records))
	for _, rec := range records {
		summaries = append(summaries, tokenSummary{
			MerchantID: rec.MerchantID,
			Scope:      rec.Scope,
			TokenType:  rec.TokenType,
			ExpiresAt:  rec.ExpiresAt,
			UpdatedAt:  rec.UpdatedAt,
			IsValid:    !rec.IsExpired() && !rec.IsCorrupt(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"count":  len(summaries),
		"tokens": summaries,
	})
}
