package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/storefront_api/internal/models"
)

// WebhookEventRepository records inbound provider webhooks.
type WebhookEventRepository struct {
	db *sqlx.DB
}

// NewWebhookEventRepository creates a new WebhookEventRepository.
func NewWebhookEventRepository(db *sqlx.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Record stores ev and fills its id. When the provider event id was seen
// before, the existing row is returned instead, including its ProcessedAt, so
// callers can skip deliveries that were already handled.
func (r *WebhookEventRepository) Record(ctx context.Context, ev *models.WebhookEvent) error {
	const q = `
		INSERT INTO webhook_events (provider, event_id, event_type, payload, signature_valid)
		VALUES ($1, $2, $3, $4::jsonb, $5)
		ON CONFLICT (provider, event_id) WHERE event_id IS NOT NULL
		DO UPDATE SET signature_valid = webhook_events.signature_valid OR EXCLUDED.signature_valid
		RETURNING id, processed_at, created_at`
	return r.db.QueryRowxContext(ctx, q,
		ev.Provider, ev.EventID, ev.EventType, string(ev.Payload), ev.SignatureValid,
	).Scan(&ev.ID, &ev.ProcessedAt, &ev.CreatedAt)
}

// MarkProcessed stamps the event as handled, keeping processErr when non-nil.
// Failed events stay unprocessed so the provider's retry is handled again.
func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, id int64, processErr *string) error {
	const q = `
		UPDATE webhook_events
		SET processed_at = CASE WHEN $2::text IS NULL THEN NOW() ELSE NULL END,
		    processing_error = $2
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, processErr)
	return err
}
