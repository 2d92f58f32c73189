package sse

import (
	"time"

	"github.com/GTDGit/storefront_api/internal/models"
)

// Notifier is the interface services use to emit realtime events.
type Notifier interface {
	NotifyOrderUpdated(order *models.Order)
	NotifyConfirmationSubmitted(order *models.Order, pc *models.PaymentConfirmation)
	NotifyLeadReceived(kind string, name string)
}

// OrderEvent is the payload pushed to a buyer's order stream.
type OrderEvent struct {
	ReferenceCode string             `json:"referenceCode"`
	Status        models.OrderStatus `json:"status"`
	Timestamp     string             `json:"timestamp"`
}

// AdminOrderEvent is the payload broadcast to admin streams.
type AdminOrderEvent struct {
	OrderID       int64              `json:"orderId"`
	ReferenceCode string             `json:"referenceCode"`
	Status        models.OrderStatus `json:"status"`
	AmountCents   int64              `json:"amountCents"`
	Currency      string             `json:"currency"`
	Timestamp     string             `json:"timestamp"`
}

// AdminConfirmationEvent announces a new manual payment claim.
type AdminConfirmationEvent struct {
	ConfirmationID int64                `json:"confirmationId"`
	OrderID        int64                `json:"orderId"`
	ReferenceCode  string               `json:"referenceCode"`
	Method         models.PaymentMethod `json:"method"`
	AmountCents    int64                `json:"amountCents"`
	Currency       string               `json:"currency"`
	AmountMatches  bool                 `json:"amountMatches"`
	Timestamp      string               `json:"timestamp"`
}

// AdminLeadEvent announces a contact message or system request.
type AdminLeadEvent struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
}

// HubNotifier implements Notifier using the SSE Hub.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a notifier backed by the given Hub.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyOrderUpdated(order *models.Order) {
	if n.hub.ClientCount() == 0 {
		return
	}
	now := Timestamp(time.Now())
	n.hub.Publish(OrderTopic(order.AccessToken), EventOrderUpdated, &OrderEvent{
		ReferenceCode: order.ReferenceCode,
		Status:        order.Status,
		Timestamp:     now,
	})
	n.hub.Publish(AdminTopic, EventOrderUpdated, &AdminOrderEvent{
		OrderID:       order.ID,
		ReferenceCode: order.ReferenceCode,
		Status:        order.Status,
		AmountCents:   order.AmountCents,
		Currency:      order.Currency,
		Timestamp:     now,
	})
}

func (n *HubNotifier) NotifyConfirmationSubmitted(order *models.Order, pc *models.PaymentConfirmation) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Publish(AdminTopic, EventConfirmationSubmitted, &AdminConfirmationEvent{
		ConfirmationID: pc.ID,
		OrderID:        order.ID,
		ReferenceCode:  order.ReferenceCode,
		Method:         pc.Method,
		AmountCents:    pc.AmountCents,
		Currency:       pc.Currency,
		AmountMatches:  pc.AmountMatches,
		Timestamp:      Timestamp(time.Now()),
	})
}

func (n *HubNotifier) NotifyLeadReceived(kind, name string) {
	if n.hub.ClientCount() == 0 {
		return
	}
	n.hub.Publish(AdminTopic, EventLeadReceived, &AdminLeadEvent{
		Kind:      kind,
		Name:      name,
		Timestamp: Timestamp(time.Now()),
	})
}

// NopNotifier is a no-op implementation for when SSE is not needed.
type NopNotifier struct{}

func (NopNotifier) NotifyOrderUpdated(*models.Order)                                       {}
func (NopNotifier) NotifyConfirmationSubmitted(*models.Order, *models.PaymentConfirmation) {}
func (NopNotifier) NotifyLeadReceived(string, string)                                      {}
