package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/metrics"
	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/utils"
	"github.com/GTDGit/storefront_api/pkg/payssd"
)

// ProviderPaySSD names the gateway in webhook_events.
const ProviderPaySSD = "payssd"

// Webhook outcomes.
const (
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
)

// WebhookHeaders are the transport headers of a delivery.
type WebhookHeaders struct {
	Signature string
	Timestamp string
	Event     string
}

// WebhookResult is acknowledged back to the gateway.
type WebhookResult struct {
	Event   string `json:"event"`
	Outcome string `json:"outcome"`
}

// WebhookService verifies, records and applies gateway webhooks.
type WebhookService struct {
	events      WebhookEventStore
	orders      OrderStore
	fulfillment *FulfillmentService
	secret      string
	tolerance   time.Duration
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewWebhookService constructs a WebhookService. An empty secret disables
// signature verification; a zero tolerance disables the timestamp check.
func NewWebhookService(events WebhookEventStore, orders OrderStore, fulfillment *FulfillmentService, secret string, tolerance time.Duration, m *metrics.Metrics) *WebhookService {
	if secret == "" {
		log.Warn().Msg("PAYSSD_WEBHOOK_SECRET not set, webhook signatures will not be verified")
	}
	return &WebhookService{
		events:      events,
		orders:      orders,
		fulfillment: fulfillment,
		secret:      secret,
		tolerance:   tolerance,
		metrics:     m,
		now:         time.Now,
	}
}

// Verify checks the HMAC signature over "timestamp.body" and the timestamp
// age. It is a no-op without a secret.
func (s *WebhookService) Verify(body []byte, h WebhookHeaders) error {
	if s.secret == "" {
		return nil
	}
	if h.Signature == "" {
		return utils.ErrInvalidSignature
	}
	signed := make([]byte, 0, len(h.Timestamp)+1+len(body))
	signed = append(signed, h.Timestamp...)
	signed = append(signed, '.')
	signed = append(signed, body...)
	if !utils.VerifySignature(signed, h.Signature, s.secret) {
		return utils.ErrInvalidSignature
	}

	if s.tolerance > 0 {
		sec, err := strconv.ParseInt(strings.TrimSpace(h.Timestamp), 10, 64)
		if err != nil {
			return utils.ErrInvalidSignature
		}
		age := s.now().Sub(time.Unix(sec, 0))
		if age < 0 {
			age = -age
		}
		if age > s.tolerance {
			return utils.ErrStaleWebhook
		}
	}
	return nil
}

// Handle processes one delivery. A returned error other than a verification
// or input error means the gateway should retry.
func (s *WebhookService) Handle(ctx context.Context, body []byte, h WebhookHeaders) (*WebhookResult, error) {
	if err := s.Verify(body, h); err != nil {
		s.metrics.WebhookEvent(h.Event, "rejected")
		log.Warn().Err(err).Str("event", h.Event).Msg("Rejected webhook delivery")
		return nil, err
	}

	ev, err := payssd.ParseWebhook(body)
	if err != nil {
		s.metrics.WebhookEvent(h.Event, "invalid")
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidInput, err)
	}
	eventName := strings.TrimSpace(h.Event)
	if eventName == "" {
		eventName = ev.Event
	}

	record := &models.WebhookEvent{
		Provider:       ProviderPaySSD,
		EventType:      eventName,
		Payload:        body,
		SignatureValid: s.secret != "",
	}
	if ev.ID != "" {
		id := string(ev.ID)
		record.EventID = &id
	}
	if err := s.events.Record(ctx, record); err != nil {
		return nil, fmt.Errorf("record webhook: %w", err)
	}
	if record.ProcessedAt != nil {
		s.metrics.WebhookEvent(eventName, WebhookDuplicate)
		log.Info().Str("event", eventName).Str("event_id", string(ev.ID)).Msg("Duplicate webhook delivery acknowledged")
		return &WebhookResult{Event: eventName, Outcome: WebhookDuplicate}, nil
	}

	outcome, procErr := s.apply(ctx, eventName, &ev.Data.Payment)
	if procErr != nil {
		msg := procErr.Error()
		if err := s.events.MarkProcessed(ctx, record.ID, &msg); err != nil {
			log.Error().Err(err).Int64("webhook_event_id", record.ID).Msg("Failed to store webhook processing error")
		}
		s.metrics.WebhookEvent(eventName, metrics.OutcomeFailed)
		return nil, procErr
	}
	if err := s.events.MarkProcessed(ctx, record.ID, nil); err != nil {
		log.Error().Err(err).Int64("webhook_event_id", record.ID).Msg("Failed to mark webhook processed")
	}
	s.metrics.WebhookEvent(eventName, outcome)
	return &WebhookResult{Event: eventName, Outcome: outcome}, nil
}

func (s *WebhookService) apply(ctx context.Context, event string, payment *payssd.WebhookPayment) (string, error) {
	switch event {
	case payssd.EventPaymentConfirmed, payssd.EventPaymentFailed:
	default:
		log.Info().Str("event", event).Msg("Unhandled webhook event acknowledged")
		return WebhookIgnored, nil
	}

	order, err := s.resolveOrder(ctx, payment)
	if err != nil {
		return "", err
	}
	if order == nil {
		log.Warn().
			Str("event", event).
			Str("reference", payment.ReferenceCode).
			Interface("metadata", payment.Metadata).
			Msg("Webhook for unknown order ignored")
		return WebhookIgnored, nil
	}

	if event == payssd.EventPaymentFailed {
		if _, err := s.fulfillment.FailOrder(ctx, order.ID, SourceWebhook); err != nil {
			return "", err
		}
		return WebhookProcessed, nil
	}

	if payment.Amount > 0 && (payment.Amount != order.AmountCents || !strings.EqualFold(payment.Currency, order.Currency)) {
		log.Warn().
			Int64("order_id", order.ID).
			Int64("paid", payment.Amount).
			Str("paid_currency", payment.Currency).
			Int64("expected", order.AmountCents).
			Str("expected_currency", order.Currency).
			Msg("Gateway amount differs from order amount")
	}

	var providerRef *string
	if payment.ID != "" {
		ref := string(payment.ID)
		providerRef = &ref
	}
	_, err = s.fulfillment.ConfirmOrderPayment(ctx, ConfirmPaymentInput{
		OrderID:           order.ID,
		Source:            SourceWebhook,
		ProviderReference: providerRef,
	})
	if err != nil {
		return "", err
	}
	return WebhookProcessed, nil
}

// resolveOrder finds the order by metadata.order_id, then by reference code.
// It returns nil without error when neither matches.
func (s *WebhookService) resolveOrder(ctx context.Context, payment *payssd.WebhookPayment) (*models.Order, error) {
	if id, ok := payment.OrderID(); ok {
		order, err := s.orders.GetByID(ctx, id)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load order %d: %w", id, err)
		}
	}
	if ref := strings.TrimSpace(payment.ReferenceCode); ref != "" {
		order, err := s.orders.GetByReferenceCode(ctx, ref)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load order %q: %w", ref, err)
		}
	}
	return nil, nil
}
