package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-sallagate/sallagate/internal/cache"
	"github.com/go-sallagate/sallagate/internal/config"
	"github.com/go-sallagate/sallagate/internal/salla"
	"github.com/go-sallagate/sallagate/internal/services"
	"github.com/go-sallagate/sallagate/internal/store"

	"github.com/gin-gonic/gin"
)

// DataHandler serves the assembled spreadsheet dataset. It always goes
// through the live upstream API (through a short TTL cache); there is no
// sample-data fallback, a merchant without a valid token gets an explicit
// reconnect error.
type DataHandler struct {
	tokens *services.TokenService
	client *salla.Client
	cache  cache.Cache[*salla.Dataset]
	cfg    *config.Config
}

func NewDataHandler(
	tokens *services.TokenService,
	client *salla.Client,
	dataCache cache.Cache[*salla.Dataset],
	cfg *config.Config,
) *DataHandler {
	return &DataHandler{
		tokens: tokens,
		client: client,
		cache:  dataCache,
		cfg:    cfg,
	}
}

// Dataset handles GET /api/excel/data?merchant_id=...
func (h *DataHandler) Dataset(c *gin.Context) {
	merchantID := c.Query("merchant_id")
	if merchantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "merchant_id query parameter is required"})
		return
	}

	rec, err := h.tokens.Fetch(c.Request.Context(), merchantID)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "No valid token found",
			"message": "Reconnect the store to refresh its authorization",
		})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve token"})
		return
	}

	ds, err := cache.GetWithFetch(
		c.Request.Context(),
		h.cache,
		merchantID,
		h.cfg.DataCacheTTL,
		func(ctx context.Context, key string) (*salla.Dataset, error) {
			fetchCtx, cancel := context.WithTimeout(ctx, h.cfg.SallaAPITimeout)
			defer cancel()
			return h.client.FetchDataset(fetchCtx, key, rec.AccessToken)
		},
	)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "No data available",
			"message": "Upstream data fetch failed; try again shortly",
		})
		return
	}

	c.JSON(http.StatusOK, ds)
}
