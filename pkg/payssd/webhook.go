package payssd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Webhook headers.
const (
	HeaderSignature = "X-Payssd-Signature"
	HeaderTimestamp = "X-Payssd-Timestamp"
	HeaderEvent     = "X-Payssd-Event"
)

// Webhook event names.
const (
	EventPaymentConfirmed = "payment.confirmed"
	EventPaymentFailed    = "payment.failed"
)

// FlexibleID accepts a JSON string or number.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("payssd: id is neither string nor number: %s", b)
	}
	*f = FlexibleID(n.String())
	return nil
}

// WebhookEvent is the body PaySSD posts to the webhook endpoint.
type WebhookEvent struct {
	ID    FlexibleID  `json:"id"`
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

// WebhookData wraps the payment object.
type WebhookData struct {
	Payment WebhookPayment `json:"payment"`
}

// WebhookPayment describes the payment an event refers to.
type WebhookPayment struct {
	ID            FlexibleID     `json:"id"`
	SessionID     string         `json:"session_id,omitempty"`
	Status        string         `json:"status"`
	Amount        int64          `json:"amount"`
	Currency      string         `json:"currency"`
	ReferenceCode string         `json:"reference_code"`
	Metadata      map[string]any `json:"metadata"`
}

// ParseWebhook decodes a webhook body.
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("payssd: invalid webhook body: %w", err)
	}
	return &ev, nil
}

// OrderID returns metadata.order_id as an integer, accepting string or
// number encodings. ok is false when absent or malformed.
func (p *WebhookPayment) OrderID() (id int64, ok bool) {
	raw, exists := p.Metadata["order_id"]
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		if v <= 0 || v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
