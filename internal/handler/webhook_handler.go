package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/service"
	"github.com/GTDGit/storefront_api/internal/utils"
	"github.com/GTDGit/storefront_api/pkg/payssd"
)

const maxWebhookBody = 1 << 20

// WebhookHandler handles incoming PaySSD webhooks.
type WebhookHandler struct {
	webhooks *service.WebhookService
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(webhooks *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// HandlePaySSD handles POST /api/webhooks/payssd
func (h *WebhookHandler) HandlePaySSD(c *gin.Context) {
	// 1. Read the raw body; the signature covers the exact bytes
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid body"})
		return
	}

	// 2. Verify, record and apply
	result, err := h.webhooks.Handle(c.Request.Context(), body, service.WebhookHeaders{
		Signature: c.GetHeader(payssd.HeaderSignature),
		Timestamp: c.GetHeader(payssd.HeaderTimestamp),
		Event:     c.GetHeader(payssd.HeaderEvent),
	})
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidSignature), errors.Is(err, utils.ErrStaleWebhook):
			log.Warn().Err(err).Str("ip", c.ClientIP()).Msg("Rejected PaySSD webhook")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		case errors.Is(err, utils.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		default:
			// 5xx makes the gateway retry the delivery.
			log.Error().Err(err).Msg("Failed to process PaySSD webhook")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Processing failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "event": result.Event, "outcome": result.Outcome})
}

// Challenge handles GET /api/webhooks/payssd?challenge=x used by the
// gateway to verify the endpoint.
func (h *WebhookHandler) Challenge(c *gin.Context) {
	challenge := c.Query("challenge")
	if challenge == "" {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	c.String(http.StatusOK, challenge)
}
