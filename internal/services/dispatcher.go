package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-sallagate/sallagate/internal/config"
	"github.com/go-sallagate/sallagate/internal/metrics"
	"github.com/go-sallagate/sallagate/internal/models"
	"github.com/go-sallagate/sallagate/internal/signature"
)

// Dispatcher turns one webhook delivery into store mutations: it verifies
// the signature, decodes the envelope, and routes by event type. All
// failures come back as typed errors; nothing escapes to the caller as a
// panic.
type Dispatcher struct {
	tokens  *TokenService
	cfg     *config.Config
	metrics metrics.Recorder
}

func NewDispatcher(tokens *TokenService, cfg *config.Config, recorder metrics.Recorder) *Dispatcher {
	return &Dispatcher{
		tokens:  tokens,
		cfg:     cfg,
		metrics: recorder,
	}
}

// HandleDelivery processes one raw webhook body. The returned envelope is
// non-nil whenever the body decoded, so callers can build the acknowledgment
// even for unknown event types.
//
// The store operations are individually atomic but there is no cross-call
// transaction: a failure mid-uninstall can leave installation metadata
// behind, to be cleaned up by the upstream's retry.
func (d *Dispatcher) HandleDelivery(
	ctx context.Context,
	rawBody []byte,
	signatureHeader string,
) (*models.EventEnvelope, error) {
	if d.cfg.SignatureRequired() {
		if !signature.Verify(rawBody, signatureHeader, []byte(d.cfg.WebhookSecret)) {
			d.metrics.RecordSignatureVerification(metrics.ResultFailure)
			return nil, ErrInvalidSignature
		}
		d.metrics.RecordSignatureVerification(metrics.ResultSuccess)
	} else {
		// Local-dev escape hatch: no real secret configured, request trusted.
		d.metrics.RecordSignatureVerification("skipped")
	}

	env, err := models.DecodeEnvelope(rawBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if err := d.dispatch(ctx, env); err != nil {
		d.metrics.RecordWebhookEvent(env.RawEvent, metrics.ResultError)
		return env, err
	}

	d.metrics.RecordWebhookEvent(env.RawEvent, metrics.ResultSuccess)
	return env, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, env *models.EventEnvelope) error {
	merchantID := env.Merchant.String()

	switch env.Event {
	case models.EventAuthorize:
		return d.handleAuthorize(ctx, merchantID, env.Data)

	case models.EventInstalled:
		return d.handleInstallOrUpdate(ctx, merchantID, env.Data, "installed")

	case models.EventUpdated:
		// Metadata only. Salla follows app.updated with a fresh
		// app.store.authorize carrying the new token.
		return d.handleInstallOrUpdate(ctx, merchantID, env.Data, "updated")

	case models.EventUninstalled:
		return d.handleUninstall(ctx, merchantID)

	case models.EventUnknown:
		log.Printf("Unhandled webhook event type %q for merchant %s", env.RawEvent, merchantID)
		return nil
	}

	// Unreachable: ParseEventType maps everything onto the enum above.
	return nil
}

func (d *Dispatcher) handleAuthorize(
	ctx context.Context,
	merchantID string,
	data json.RawMessage,
) error {
	var payload models.AuthorizePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("%w: authorize data: %v", ErrMalformedPayload, err)
	}
	if payload.AccessToken == "" {
		return fmt.Errorf("%w: authorize data missing access_token", ErrMalformedPayload)
	}
	if payload.Expires <= 0 {
		return fmt.Errorf("%w: authorize data missing expires", ErrMalformedPayload)
	}

	_, err := d.tokens.Upsert(ctx, merchantID, models.Grant{
		AccessToken:        payload.AccessToken,
		RefreshToken:       payload.RefreshToken,
		Scope:              payload.Scope,
		TokenType:          payload.TokenType,
		ExpiresAtEpochSecs: payload.Expires,
	})
	return err
}

func (d *Dispatcher) handleInstallOrUpdate(
	ctx context.Context,
	merchantID string,
	data json.RawMessage,
	action string,
) error {
	var payload models.InstallPayload
	if len(data) > 0 {
		// Metadata is best-effort: an unparsable data object downgrades to
		// an empty record rather than rejecting the delivery.
		if err := json.Unmarshal(data, &payload); err != nil {
			log.Printf("Ignoring unparsable %s metadata for merchant %s: %v",
				action, merchantID, err)
			payload = models.InstallPayload{}
		}
	}

	if _, err := d.tokens.RecordInstallation(ctx, merchantID, payload); err != nil {
		return err
	}
	log.Printf("App %s for merchant %s (%s)", action, merchantID, payload.AppName)
	return nil
}

func (d *Dispatcher) handleUninstall(ctx context.Context, merchantID string) error {
	if err := d.tokens.Delete(ctx, merchantID); err != nil {
		return err
	}
	if err := d.tokens.ClearInstallation(ctx, merchantID); err != nil {
		return err
	}
	log.Printf("App uninstalled for merchant %s, credentials removed", merchantID)
	return nil
}
