package handler

import (
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/middleware"
	"github.com/GTDGit/storefront_api/internal/service"
	"github.com/GTDGit/storefront_api/internal/sse"
)

const pingInterval = 30 * time.Second

// SSEHandler streams realtime events to buyers and admins.
type SSEHandler struct {
	hub    *sse.Hub
	orders *service.OrderService
}

// NewSSEHandler creates a new SSEHandler.
func NewSSEHandler(hub *sse.Hub, orders *service.OrderService) *SSEHandler {
	return &SSEHandler{hub: hub, orders: orders}
}

// OrderStream handles GET /v1/store/orders/:token/events.
// The first event carries the current order state.
func (h *SSEHandler) OrderStream(c *gin.Context) {
	token := c.Param("token")
	order, err := h.orders.GetOrder(c.Request.Context(), token)
	if err != nil {
		handleError(c, err)
		return
	}

	clientID := "order-" + uuid.NewString()
	client := h.hub.Register(clientID, sse.OrderTopic(token))
	defer h.hub.Unregister(clientID)

	setStreamHeaders(c)
	c.SSEvent(string(sse.EventOrderUpdated), sse.OrderEvent{
		ReferenceCode: order.ReferenceCode,
		Status:        order.Status,
		Timestamp:     sse.Timestamp(time.Now()),
	})
	c.Writer.Flush()

	h.stream(c, client)
}

// AdminStream handles GET /v1/admin/events?token=<jwt>
// EventSource API cannot set custom headers, so JWT is passed via query param.
func (h *SSEHandler) AdminStream(c *gin.Context) {
	userID := middleware.GetUserID(c)
	clientID := fmt.Sprintf("admin-%d-%s", userID, uuid.NewString()[:8])
	client := h.hub.Register(clientID, sse.AdminTopic)
	defer h.hub.Unregister(clientID)

	setStreamHeaders(c)
	// Send initial connected event
	c.SSEvent("connected", gin.H{
		"clientId":  clientID,
		"message":   "SSE connection established",
		"timestamp": sse.Timestamp(time.Now()),
	})
	c.Writer.Flush()

	log.Info().Str("client_id", clientID).Int64("user_id", userID).Msg("Admin SSE stream started")
	h.stream(c, client)
}

func (h *SSEHandler) stream(c *gin.Context, client *sse.Client) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent(string(msg.Event), string(msg.Data))
			return true
		case <-ping.C:
			c.SSEvent("ping", gin.H{"timestamp": sse.Timestamp(time.Now())})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func setStreamHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering
}
