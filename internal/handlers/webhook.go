package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-sallagate/sallagate/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Salla webhook security headers.
const (
	HeaderSignature        = "X-Salla-Signature"
	HeaderSecurityStrategy = "X-Salla-Security-Strategy"
)

// maxWebhookBody bounds the request body read; Salla lifecycle payloads are
// a few KB at most.
const maxWebhookBody = 1 << 20 // 1 MiB

type WebhookHandler struct {
	dispatcher *services.Dispatcher
}

func NewWebhookHandler(d *services.Dispatcher) *WebhookHandler {
	return &WebhookHandler{dispatcher: d}
}

// Receive handles POST /salla/webhook. The body is read raw before any JSON
// decoding: the signature covers the exact bytes on the wire.
func (h *WebhookHandler) Receive(c *gin.Context) {
	deliveryID := uuid.New().String()

	rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable request body"})
		return
	}

	env, err := h.dispatcher.HandleDelivery(
		c.Request.Context(),
		rawBody,
		c.GetHeader(HeaderSignature),
	)

	switch {
	case errors.Is(err, services.ErrInvalidSignature):
		log.Printf("Webhook delivery %s rejected: signature verification failed (strategy %q)",
			deliveryID, c.GetHeader(HeaderSecurityStrategy))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return

	case errors.Is(err, services.ErrMalformedPayload):
		log.Printf("Webhook delivery %s rejected: %v", deliveryID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed webhook payload"})
		return

	case err != nil:
		// The error may concern credentials; log the event type, never the
		// payload.
		log.Printf("Webhook delivery %s failed (event %q): %v", deliveryID, env.RawEvent, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"event":        env.RawEvent,
		"merchant":     env.Merchant.String(),
		"processed_at": time.Now().UTC().Format(time.RFC3339),
	})
}
