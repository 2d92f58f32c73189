package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/sse"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// ConfirmationDetail is a confirmation as shown to the reviewing admin.
type ConfirmationDetail struct {
	Confirmation        *models.PaymentConfirmation `json:"confirmation"`
	Order               *models.Order               `json:"order"`
	ProductName         string                      `json:"productName"`
	ExpectedAmountCents int64                       `json:"expectedAmountCents"`
	AmountWarning       bool                        `json:"amountWarning"`
	HasReceipt          bool                        `json:"hasReceipt"`
}

// ReviewRequest carries an optional admin note.
type ReviewRequest struct {
	Note *string `json:"note" binding:"omitempty,max=1000"`
}

// RejectRequest rejects a claim and optionally fails the order.
type RejectRequest struct {
	Reason          *string `json:"reason" binding:"omitempty,max=1000"`
	MarkOrderFailed bool    `json:"markOrderFailed"`
}

// ConfirmationReviewService is the admin review queue for manual payments.
type ConfirmationReviewService struct {
	confirmations ConfirmationStore
	orders        OrderStore
	products      ProductStore
	settings      *SettingsService
	storage       ObjectStorage
	fulfillment   *FulfillmentService
	events        sse.Notifier
}

// NewConfirmationReviewService constructs a ConfirmationReviewService.
func NewConfirmationReviewService(
	confirmations ConfirmationStore,
	orders OrderStore,
	products ProductStore,
	settings *SettingsService,
	storage ObjectStorage,
	fulfillment *FulfillmentService,
	events sse.Notifier,
) *ConfirmationReviewService {
	if events == nil {
		events = sse.NopNotifier{}
	}
	return &ConfirmationReviewService{
		confirmations: confirmations,
		orders:        orders,
		products:      products,
		settings:      settings,
		storage:       storage,
		fulfillment:   fulfillment,
		events:        events,
	}
}

// List returns a page of confirmations.
func (s *ConfirmationReviewService) List(ctx context.Context, filter repository.ConfirmationFilter) ([]repository.ConfirmationView, int, error) {
	return s.confirmations.List(ctx, filter)
}

// Get returns a confirmation with the amount the order expects in the
// claimed currency.
func (s *ConfirmationReviewService) Get(ctx context.Context, id int64) (*ConfirmationDetail, error) {
	pc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.GetByID(ctx, pc.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", pc.OrderID, err)
	}

	detail := &ConfirmationDetail{
		Confirmation:  pc,
		Order:         order,
		AmountWarning: !pc.AmountMatches,
		HasReceipt:    pc.ReceiptPath != nil,
	}
	if p, err := s.products.GetByID(ctx, order.ProductID); err == nil {
		detail.ProductName = p.Name
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	if expected, err := ConvertAmount(order.AmountCents, order.Currency, pc.Currency, settings.ExchangeRate); err == nil {
		detail.ExpectedAmountCents = expected
		detail.AmountWarning = pc.AmountCents != expected
	}
	return detail, nil
}

// Approve settles the order of a pending confirmation.
func (s *ConfirmationReviewService) Approve(ctx context.Context, adminID, id int64, req *ReviewRequest) (*ConfirmPaymentOutcome, error) {
	pc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if pc.ReviewStatus != models.ReviewPending {
		return nil, utils.ErrConfirmationAlreadyReviewed
	}

	outcome, err := s.fulfillment.ConfirmOrderPayment(ctx, ConfirmPaymentInput{
		OrderID:        pc.OrderID,
		Source:         SourceAdmin,
		ConfirmationID: &pc.ID,
		ReviewedBy:     &adminID,
		ReviewNote:     trimmed(req.Note),
	})
	if err != nil {
		return nil, err
	}
	log.Info().Int64("confirmation_id", id).Int64("admin_id", adminID).Bool("amount_matches", pc.AmountMatches).Msg("Payment confirmation approved")
	return outcome, nil
}

// Reject marks a pending confirmation rejected.
func (s *ConfirmationReviewService) Reject(ctx context.Context, adminID, id int64, req *RejectRequest) (*repository.RejectResult, error) {
	result, err := s.confirmations.Reject(ctx, repository.RejectParams{
		ConfirmationID:  id,
		ReviewedBy:      &adminID,
		Reason:          trimmed(req.Reason),
		MarkOrderFailed: req.MarkOrderFailed,
	})
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reject confirmation %d: %w", id, err)
		}
		if _, err := s.load(ctx, id); err != nil {
			return nil, err
		}
		return nil, utils.ErrConfirmationAlreadyReviewed
	}

	log.Info().Int64("confirmation_id", id).Int64("admin_id", adminID).Bool("order_failed", result.OrderFailed).Msg("Payment confirmation rejected")
	if result.OrderFailed {
		if order, err := s.orders.GetByID(ctx, result.Confirmation.OrderID); err == nil {
			s.events.NotifyOrderUpdated(order)
		}
	}
	return result, nil
}

// ReceiptURL returns a presigned link to the uploaded receipt.
func (s *ConfirmationReviewService) ReceiptURL(ctx context.Context, id int64) (string, error) {
	pc, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	if pc.ReceiptPath == nil || s.storage == nil {
		return "", utils.ErrConfirmationNotFound
	}
	return s.storage.PresignGet(ctx, *pc.ReceiptPath, path.Base(*pc.ReceiptPath))
}

func (s *ConfirmationReviewService) load(ctx context.Context, id int64) (*models.PaymentConfirmation, error) {
	pc, err := s.confirmations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrConfirmationNotFound
		}
		return nil, fmt.Errorf("load confirmation %d: %w", id, err)
	}
	return pc, nil
}
