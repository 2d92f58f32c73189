package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/metrics"
	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/service"
	"github.com/GTDGit/storefront_api/pkg/payssd"
)

// Actions recorded per checked order.
const (
	ActionConfirmed = "confirmed"
	ActionFailed    = "failed"
	ActionPending   = "pending"
	ActionError     = "error"
)

const defaultBatchSize = 50

// StatusCheckWorker re-checks pending orders whose gateway webhook never
// arrived. PaySSD session lookups are read-only, so a check can be repeated
// freely; settlement itself goes through the fulfillment service.
type StatusCheckWorker struct {
	orders      service.OrderStore
	gateway     service.Gateway
	fulfillment *service.FulfillmentService
	metrics     *metrics.Metrics
	interval    time.Duration
	staleAfter  time.Duration // grace period for the webhook to arrive
	maxAge      time.Duration // sessions older than this are left to the admin
	batchSize   int
	now         func() time.Time
}

// NewStatusCheckWorker constructs a StatusCheckWorker.
func NewStatusCheckWorker(
	orders service.OrderStore,
	gateway service.Gateway,
	fulfillment *service.FulfillmentService,
	m *metrics.Metrics,
	interval time.Duration,
	staleAfter time.Duration,
	maxAge time.Duration,
) *StatusCheckWorker {
	return &StatusCheckWorker{
		orders:      orders,
		gateway:     gateway,
		fulfillment: fulfillment,
		metrics:     m,
		interval:    interval,
		staleAfter:  staleAfter,
		maxAge:      maxAge,
		batchSize:   defaultBatchSize,
		now:         time.Now,
	}
}

// Start begins the periodic status check loop until context is canceled.
func (w *StatusCheckWorker) Start(ctx context.Context) {
	if w.gateway == nil || !w.gateway.Configured() {
		log.Info().Msg("Payment gateway not configured, status check worker disabled")
		return
	}
	if w.interval <= 0 {
		log.Warn().Dur("interval", w.interval).Msg("Invalid status check interval, worker disabled")
		return
	}

	log.Info().
		Dur("interval", w.interval).
		Dur("stale_after", w.staleAfter).
		Dur("max_age", w.maxAge).
		Msg("Starting status check worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Status check worker stopped")
			return
		}
	}
}

func (w *StatusCheckWorker) run(ctx context.Context) {
	now := w.now()
	stale, err := w.orders.ListGatewayPending(ctx, now.Add(-w.maxAge), now.Add(-w.staleAfter), w.batchSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load pending gateway orders")
		return
	}
	if len(stale) == 0 {
		return
	}

	log.Info().Int("count", len(stale)).Msg("Re-checking pending gateway orders")

	for i := range stale {
		select {
		case <-ctx.Done():
			return
		default:
			action := w.checkOrder(ctx, &stale[i])
			w.metrics.GatewayCheck(action)
		}
	}
}

func (w *StatusCheckWorker) checkOrder(ctx context.Context, order *models.Order) string {
	if order.GatewaySessionID == nil || *order.GatewaySessionID == "" {
		return ActionPending
	}

	start := time.Now()
	session, err := w.gateway.GetSession(ctx, *order.GatewaySessionID)
	w.metrics.ObserveGateway(time.Since(start))
	if err != nil {
		log.Warn().
			Err(err).
			Int64("order_id", order.ID).
			Str("session_id", *order.GatewaySessionID).
			Msg("Failed to check gateway session, will retry later")
		return ActionError
	}

	switch session.Status {
	case payssd.SessionConfirmed:
		in := service.ConfirmPaymentInput{OrderID: order.ID, Source: service.SourceStatusCheck}
		if session.PaymentReference != "" {
			ref := session.PaymentReference
			in.ProviderReference = &ref
		}
		if _, err := w.fulfillment.ConfirmOrderPayment(ctx, in); err != nil {
			log.Error().Err(err).Int64("order_id", order.ID).Msg("Failed to confirm order from gateway status")
			return ActionError
		}
		log.Info().
			Int64("order_id", order.ID).
			Str("reference", order.ReferenceCode).
			Msg("Order confirmed by gateway status check")
		return ActionConfirmed

	case payssd.SessionFailed, payssd.SessionExpired, payssd.SessionCancelled:
		settle := w.fulfillment.FailOrder
		if session.Status == payssd.SessionCancelled {
			settle = w.fulfillment.CancelOrder
		}
		if _, err := settle(ctx, order.ID, service.SourceStatusCheck); err != nil {
			log.Error().Err(err).Int64("order_id", order.ID).Msg("Failed to fail order from gateway status")
			return ActionError
		}
		log.Info().
			Int64("order_id", order.ID).
			Str("session_status", string(session.Status)).
			Msg("Order closed by gateway status check")
		return ActionFailed

	default:
		return ActionPending
	}
}
