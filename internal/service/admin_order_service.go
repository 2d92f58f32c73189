package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/sse"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// AdminOrderDetail is an order with everything fulfillment produced for it.
type AdminOrderDetail struct {
	Order         *models.Order                `json:"order"`
	Product       *models.Product              `json:"product,omitempty"`
	License       *models.LicenseKey           `json:"license,omitempty"`
	DeployRequest *models.DeployRequest        `json:"deployRequest,omitempty"`
	Confirmations []models.PaymentConfirmation `json:"confirmations"`
}

// UpdateOrderRequest is an admin edit of an order.
type UpdateOrderRequest struct {
	Status     *string `json:"status" binding:"omitempty,oneof=pending paid confirmed failed cancelled"`
	AdminNotes *string `json:"adminNotes" binding:"omitempty,max=5000"`
}

// AdminOrderService serves the admin order screens.
type AdminOrderService struct {
	orders        OrderStore
	products      ProductStore
	licenses      LicenseStore
	deploys       DeployRequestStore
	confirmations ConfirmationStore
	fulfillment   *FulfillmentService
	events        sse.Notifier
}

// NewAdminOrderService constructs an AdminOrderService.
func NewAdminOrderService(
	orders OrderStore,
	products ProductStore,
	licenses LicenseStore,
	deploys DeployRequestStore,
	confirmations ConfirmationStore,
	fulfillment *FulfillmentService,
	events sse.Notifier,
) *AdminOrderService {
	if events == nil {
		events = sse.NopNotifier{}
	}
	return &AdminOrderService{
		orders:        orders,
		products:      products,
		licenses:      licenses,
		deploys:       deploys,
		confirmations: confirmations,
		fulfillment:   fulfillment,
		events:        events,
	}
}

// List returns a page of orders.
func (s *AdminOrderService) List(ctx context.Context, filter repository.OrderFilter) ([]repository.OrderView, int, error) {
	return s.orders.List(ctx, filter)
}

// Get returns one order with its license, deploy request and confirmations.
func (s *AdminOrderService) Get(ctx context.Context, id int64) (*AdminOrderDetail, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrOrderNotFound
		}
		return nil, fmt.Errorf("load order %d: %w", id, err)
	}

	detail := &AdminOrderDetail{Order: order}
	if p, err := s.products.GetByID(ctx, order.ProductID); err == nil {
		detail.Product = p
	}
	if lk, err := s.licenses.GetByOrder(ctx, id); err == nil {
		detail.License = lk
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load license: %w", err)
	}
	if dr, err := s.deploys.GetByOrder(ctx, id); err == nil {
		detail.DeployRequest = dr
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load deploy request: %w", err)
	}
	if detail.Confirmations, err = s.confirmations.ListByOrder(ctx, id); err != nil {
		return nil, fmt.Errorf("load confirmations: %w", err)
	}
	return detail, nil
}

// Update applies notes and a status change. Moving into a settled status
// goes through ConfirmOrderPayment so fulfillment runs exactly once.
func (s *AdminOrderService) Update(ctx context.Context, adminID, id int64, req *UpdateOrderRequest) (*AdminOrderDetail, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrOrderNotFound
		}
		return nil, fmt.Errorf("load order %d: %w", id, err)
	}

	if req.AdminNotes != nil {
		if err := s.orders.UpdateAdminNotes(ctx, id, trimmed(req.AdminNotes)); err != nil {
			return nil, fmt.Errorf("update admin notes: %w", err)
		}
	}

	if req.Status != nil {
		target, err := models.ParseOrderStatus(*req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", utils.ErrInvalidInput, err)
		}
		if err := s.changeStatus(ctx, adminID, order, target); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *AdminOrderService) changeStatus(ctx context.Context, adminID int64, order *models.Order, target models.OrderStatus) error {
	if order.Status == target {
		return nil
	}

	switch target {
	case models.OrderPaid, models.OrderConfirmed:
		outcome, err := s.fulfillment.ConfirmOrderPayment(ctx, ConfirmPaymentInput{
			OrderID:    order.ID,
			Source:     SourceAdmin,
			Status:     target,
			ReviewedBy: &adminID,
		})
		if err != nil {
			return err
		}
		// A settled order keeps its settled status.
		if !outcome.Transitioned && outcome.Order.Status != target {
			return fmt.Errorf("%w: %s to %s", utils.ErrInvalidStatusTransition, outcome.Order.Status, target)
		}
		return nil
	case models.OrderFailed, models.OrderCancelled:
		changed, err := s.orders.TransitionStatus(ctx, order.ID, []models.OrderStatus{models.OrderPending}, target)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if !changed {
			return fmt.Errorf("%w: %s to %s", utils.ErrInvalidStatusTransition, order.Status, target)
		}
	case models.OrderPending:
		changed, err := s.orders.TransitionStatus(ctx, order.ID, []models.OrderStatus{models.OrderFailed, models.OrderCancelled}, target)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if !changed {
			return fmt.Errorf("%w: %s to %s", utils.ErrInvalidStatusTransition, order.Status, target)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", utils.ErrInvalidInput, target)
	}

	log.Info().
		Int64("order_id", order.ID).
		Int64("admin_id", adminID).
		Str("from", string(order.Status)).
		Str("to", string(target)).
		Msg("Order status changed by admin")
	if updated, err := s.orders.GetByID(ctx, order.ID); err == nil {
		s.events.NotifyOrderUpdated(updated)
	}
	return nil
}
