package bootstrap

import (
	"github.com/go-sallagate/sallagate/internal/cache"
	"github.com/go-sallagate/sallagate/internal/config"
	"github.com/go-sallagate/sallagate/internal/handlers"
	"github.com/go-sallagate/sallagate/internal/metrics"
	"github.com/go-sallagate/sallagate/internal/salla"
	"github.com/go-sallagate/sallagate/internal/services"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	webhook *handlers.WebhookHandler
	token   *handlers.TokenHandler
	data    *handlers.DataHandler
	dev     *handlers.DevHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	tokenService *services.TokenService,
	dispatcher *services.Dispatcher,
	client *salla.Client,
	dataCache cache.Cache[*salla.Dataset],
	recorder metrics.Recorder,
) handlerSet {
	return handlerSet{
		webhook: handlers.NewWebhookHandler(dispatcher),
		token:   handlers.NewTokenHandler(tokenService, cfg, recorder),
		data:    handlers.NewDataHandler(tokenService, client, dataCache, cfg),
		dev:     handlers.NewDevHandler(tokenService, cfg),
	}
}
