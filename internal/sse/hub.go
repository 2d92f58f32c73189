package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventType defines the SSE event name.
type EventType string

const (
	EventOrderUpdated          EventType = "order.updated"
	EventConfirmationSubmitted EventType = "confirmation.submitted"
	EventLeadReceived          EventType = "lead.received"
)

// AdminTopic is the topic every admin console stream subscribes to.
const AdminTopic = "admin"

// OrderTopic returns the topic a buyer stream subscribes to. Buyers are
// keyed by access token so no numeric id leaves the server.
func OrderTopic(accessToken string) string {
	return "order:" + accessToken
}

// Message is one encoded event waiting to be written to a stream.
type Message struct {
	Event EventType
	Data  []byte
}

// Client represents a connected SSE client.
type Client struct {
	ID     string
	Topic  string
	Events chan Message
}

// Hub manages SSE client connections and fans events out per topic.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new SSE hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a new client on topic and returns it for streaming.
func (h *Hub) Register(clientID, topic string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	c := &Client{
		ID:     clientID,
		Topic:  topic,
		Events: make(chan Message, 64),
	}
	h.clients[clientID] = c
	log.Debug().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("SSE client connected")
	return c
}

// Unregister removes a client and closes its channel.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[clientID]; ok {
		close(c.Events)
		delete(h.clients, clientID)
		log.Debug().Str("client_id", clientID).Int("total_clients", len(h.clients)).Msg("SSE client disconnected")
	}
}

// Publish sends an event to every client on topic.
// Non-blocking: drops the message if a client buffer is full.
func (h *Hub) Publish(topic string, event EventType, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event", string(event)).Msg("Failed to marshal SSE event")
		return
	}
	msg := Message{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if c.Topic != topic {
			continue
		}
		select {
		case c.Events <- msg:
		default:
			log.Warn().Str("client_id", c.ID).Msg("SSE client buffer full, dropping event")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Timestamp formats t the way every event payload carries it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
