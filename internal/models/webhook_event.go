package models

import (
	"encoding/json"
	"time"
)

// WebhookEvent stores an inbound provider webhook for audit and deduplication.
type WebhookEvent struct {
	ID              int64           `db:"id" json:"id"`
	Provider        string          `db:"provider" json:"provider"`
	EventID         *string         `db:"event_id" json:"eventId,omitempty"`
	EventType       string          `db:"event_type" json:"eventType"`
	Payload         json.RawMessage `db:"payload" json:"payload"`
	SignatureValid  bool            `db:"signature_valid" json:"signatureValid"`
	ProcessedAt     *time.Time      `db:"processed_at" json:"processedAt,omitempty"`
	ProcessingError *string         `db:"processing_error" json:"processingError,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
}
