package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/metrics"
	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/sse"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// Settlement sources.
const (
	SourceWebhook     = "webhook"
	SourceStatusCheck = "status_check"
	SourceAdmin       = "admin"
	SourceAutoApprove = "auto_approve"
)

const licenseKeyAttempts = 3

// ConfirmPaymentInput describes one attempt to settle an order.
// Status defaults to the status implied by Source.
type ConfirmPaymentInput struct {
	OrderID           int64
	Source            string
	Status            models.OrderStatus
	ProviderReference *string
	ConfirmationID    *int64
	ReviewedBy        *int64
	ReviewNote        *string
}

// ConfirmPaymentOutcome is the settled order with its fulfillment records.
// Transitioned is false when the order was already settled before the call.
type ConfirmPaymentOutcome struct {
	Order         *models.Order         `json:"order"`
	License       *models.LicenseKey    `json:"license,omitempty"`
	DeployRequest *models.DeployRequest `json:"deployRequest,omitempty"`
	Transitioned  bool                  `json:"transitioned"`
}

// FulfillmentService owns every transition into and out of a settled order.
type FulfillmentService struct {
	orders   OrderStore
	products ProductStore
	notify   *NotificationService
	events   sse.Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewFulfillmentService constructs a FulfillmentService.
func NewFulfillmentService(orders OrderStore, products ProductStore, notify *NotificationService, events sse.Notifier, m *metrics.Metrics) *FulfillmentService {
	if events == nil {
		events = sse.NopNotifier{}
	}
	return &FulfillmentService{
		orders:   orders,
		products: products,
		notify:   notify,
		events:   events,
		metrics:  m,
		now:      time.Now,
	}
}

// settledStatus maps a settlement source to the order status it produces.
func settledStatus(source string) models.OrderStatus {
	switch source {
	case SourceWebhook, SourceStatusCheck:
		return models.OrderPaid
	default:
		return models.OrderConfirmed
	}
}

// ConfirmOrderPayment settles an order and issues its license key and deploy
// request. It is safe to call repeatedly and concurrently for the same order:
// only the call that performs the transition sends notifications.
func (s *FulfillmentService) ConfirmOrderPayment(ctx context.Context, in ConfirmPaymentInput) (*ConfirmPaymentOutcome, error) {
	status := in.Status
	if status == "" {
		status = settledStatus(in.Source)
	}
	if !status.IsSettled() {
		return nil, fmt.Errorf("%w: %s is not a settled status", utils.ErrInvalidStatusTransition, status)
	}
	params := repository.ConfirmPaymentParams{
		OrderID:           in.OrderID,
		Status:            status,
		ProviderReference: in.ProviderReference,
		PaidAt:            s.now().UTC(),
		ConfirmationID:    in.ConfirmationID,
		ReviewedBy:        in.ReviewedBy,
		ReviewNote:        in.ReviewNote,
		AutoApproved:      in.Source == SourceAutoApprove,
	}

	var res *repository.ConfirmPaymentResult
	var err error
	for attempt := 1; attempt <= licenseKeyAttempts; attempt++ {
		if params.LicenseKey, err = utils.GenerateLicenseKey(); err != nil {
			return nil, fmt.Errorf("generate license key: %w", err)
		}
		res, err = s.orders.ConfirmPayment(ctx, params)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
		log.Warn().Int64("order_id", in.OrderID).Int("attempt", attempt).Msg("License key collision, regenerating")
	}
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		return nil, utils.ErrOrderNotFound
	case errors.Is(err, repository.ErrNotPending):
		return nil, utils.ErrConfirmationAlreadyReviewed
	default:
		return nil, fmt.Errorf("confirm payment for order %d: %w", in.OrderID, err)
	}

	out := &ConfirmPaymentOutcome{
		Order:         res.Order,
		License:       res.License,
		DeployRequest: res.DeployRequest,
		Transitioned:  !res.AlreadySettled,
	}
	s.metrics.Settlement(in.Source, out.Transitioned)

	if !out.Transitioned {
		log.Info().
			Int64("order_id", in.OrderID).
			Str("source", in.Source).
			Str("status", string(res.Order.Status)).
			Msg("Order already settled, skipping fulfillment notifications")
		return out, nil
	}

	log.Info().
		Int64("order_id", in.OrderID).
		Str("reference", res.Order.ReferenceCode).
		Str("source", in.Source).
		Str("status", string(res.Order.Status)).
		Bool("deploy", res.DeployRequest != nil).
		Msg("Order settled")

	s.events.NotifyOrderUpdated(res.Order)
	if s.notify != nil {
		s.notify.OrderSettled(ctx, res.Order, s.productName(ctx, res.Order.ProductID), res.License.LicenseKey, in.Source)
	}
	return out, nil
}

// FailOrder moves a pending order to failed. It reports whether this call
// changed the order.
func (s *FulfillmentService) FailOrder(ctx context.Context, orderID int64, source string) (bool, error) {
	return s.transition(ctx, orderID, models.OrderFailed, source)
}

// CancelOrder moves a pending order to cancelled.
func (s *FulfillmentService) CancelOrder(ctx context.Context, orderID int64, source string) (bool, error) {
	return s.transition(ctx, orderID, models.OrderCancelled, source)
}

func (s *FulfillmentService) transition(ctx context.Context, orderID int64, to models.OrderStatus, source string) (bool, error) {
	changed, err := s.orders.TransitionStatus(ctx, orderID, []models.OrderStatus{models.OrderPending}, to)
	if err != nil {
		return false, fmt.Errorf("transition order %d to %s: %w", orderID, to, err)
	}
	if !changed {
		return false, nil
	}

	log.Info().Int64("order_id", orderID).Str("status", string(to)).Str("source", source).Msg("Order status changed")
	if order, err := s.orders.GetByID(ctx, orderID); err == nil {
		s.events.NotifyOrderUpdated(order)
	}
	return true, nil
}

func (s *FulfillmentService) productName(ctx context.Context, productID int64) string {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		log.Warn().Err(err).Int64("product_id", productID).Msg("Failed to load product for notification")
		return fmt.Sprintf("Product #%d", productID)
	}
	return p.Name
}
