package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/metrics"
	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/sse"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// PaymentRail describes one manual payment option and where to send money.
type PaymentRail struct {
	Method      models.PaymentMethod `json:"method"`
	Currencies  []string             `json:"currencies"`
	AccountName string               `json:"accountName"`
	Accounts    map[string]string    `json:"accounts"` // account number per currency
	Branch      string               `json:"branch,omitempty"`
}

// PaymentInstructions is everything the manual payment page shows.
type PaymentInstructions struct {
	ReferenceCode       string                `json:"referenceCode"`
	Status              models.OrderStatus    `json:"status"`
	Settled             bool                  `json:"settled"`
	ProductName         string                `json:"productName"`
	AmountCents         int64                 `json:"amountCents"`
	Currency            string                `json:"currency"`
	ExpectedAmounts     map[string]int64      `json:"expectedAmounts"`
	ExchangeRate        string                `json:"exchangeRate"`
	Rails               []PaymentRail         `json:"rails"`
	CheckoutURL         *string               `json:"checkoutUrl,omitempty"`
	PendingConfirmation *ConfirmationSnapshot `json:"pendingConfirmation,omitempty"`
}

// ConfirmationSnapshot is the buyer-visible state of a payment claim.
type ConfirmationSnapshot struct {
	ID           int64                `json:"id"`
	Method       models.PaymentMethod `json:"method"`
	AmountCents  int64                `json:"amountCents"`
	Currency     string               `json:"currency"`
	ReviewStatus models.ReviewStatus  `json:"reviewStatus"`
	CreatedAt    time.Time            `json:"createdAt"`
}

// ConfirmationRequest is a buyer's claim of a manual payment. Amount is in
// minor units of Currency.
type ConfirmationRequest struct {
	Method               string  `form:"method" json:"method" binding:"required,oneof=momo equity"`
	PayerPhone           *string `form:"payerPhone" json:"payerPhone" binding:"omitempty,blank|phone"`
	TransactionReference string  `form:"transactionReference" json:"transactionReference" binding:"required,min=3,max=100"`
	Amount               int64   `form:"amount" json:"amount" binding:"required,gt=0"`
	Currency             string  `form:"currency" json:"currency" binding:"required,oneof=USD SSP"`
	Note                 *string `form:"note" json:"note" binding:"omitempty,max=1000"`
}

// ConfirmationResult reports the stored claim.
type ConfirmationResult struct {
	ConfirmationID      int64               `json:"confirmationId"`
	ReviewStatus        models.ReviewStatus `json:"reviewStatus"`
	AmountMatches       bool                `json:"amountMatches"`
	ExpectedAmountCents int64               `json:"expectedAmountCents"`
	AutoApproved        bool                `json:"autoApproved"`
	OrderStatus         models.OrderStatus  `json:"orderStatus"`
}

// PaymentService handles the manual payment flow.
type PaymentService struct {
	orders        OrderStore
	products      ProductStore
	confirmations ConfirmationStore
	settings      *SettingsService
	storage       ObjectStorage
	fulfillment   *FulfillmentService
	notify        *NotificationService
	events        sse.Notifier
	metrics       *metrics.Metrics

	autoApprove     bool
	maxReceiptBytes int64
}

// PaymentServiceConfig holds the tunables of PaymentService.
type PaymentServiceConfig struct {
	AutoApprove     bool
	MaxReceiptBytes int64
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(
	orders OrderStore,
	products ProductStore,
	confirmations ConfirmationStore,
	settings *SettingsService,
	storage ObjectStorage,
	fulfillment *FulfillmentService,
	notify *NotificationService,
	events sse.Notifier,
	m *metrics.Metrics,
	cfg PaymentServiceConfig,
) *PaymentService {
	if events == nil {
		events = sse.NopNotifier{}
	}
	return &PaymentService{
		orders:          orders,
		products:        products,
		confirmations:   confirmations,
		settings:        settings,
		storage:         storage,
		fulfillment:     fulfillment,
		notify:          notify,
		events:          events,
		metrics:         m,
		autoApprove:     cfg.AutoApprove,
		maxReceiptBytes: cfg.MaxReceiptBytes,
	}
}

// Instructions returns the manual payment page for an order.
func (s *PaymentService) Instructions(ctx context.Context, token string) (*PaymentInstructions, error) {
	order, err := s.orderByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	out := &PaymentInstructions{
		ReferenceCode:   order.ReferenceCode,
		Status:          order.Status,
		Settled:         order.Status.IsSettled(),
		ProductName:     s.productName(ctx, order.ProductID),
		AmountCents:     order.AmountCents,
		Currency:        order.Currency,
		ExpectedAmounts: map[string]int64{},
		ExchangeRate:    settings.ExchangeRate.String(),
		CheckoutURL:     order.CheckoutURL,
		Rails: []PaymentRail{
			{
				Method:      models.MethodMomo,
				Currencies:  []string{models.CurrencySSP},
				AccountName: settings.MomoName,
				Accounts:    map[string]string{models.CurrencySSP: settings.MomoNumber},
			},
			{
				Method:      models.MethodEquity,
				Currencies:  []string{models.CurrencySSP, models.CurrencyUSD},
				AccountName: settings.EquityAccountName,
				Accounts: map[string]string{
					models.CurrencySSP: settings.EquityAccountSSP,
					models.CurrencyUSD: settings.EquityAccountUSD,
				},
				Branch: settings.EquityBranch,
			},
		},
	}
	for _, cur := range []string{models.CurrencyUSD, models.CurrencySSP} {
		amount, err := ConvertAmount(order.AmountCents, order.Currency, cur, settings.ExchangeRate)
		if err != nil {
			log.Warn().Err(err).Str("reference", order.ReferenceCode).Str("currency", cur).Msg("Failed to convert expected amount")
			continue
		}
		out.ExpectedAmounts[cur] = amount
	}

	if pc, err := s.confirmations.GetPendingByOrder(ctx, order.ID); err == nil {
		out.PendingConfirmation = snapshot(pc)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load pending confirmation: %w", err)
	}
	return out, nil
}

// SubmitConfirmation records a manual payment claim with an optional receipt.
// A mismatched amount is flagged but never rejected.
func (s *PaymentService) SubmitConfirmation(ctx context.Context, token string, req *ConfirmationRequest, receipt *Upload) (*ConfirmationResult, error) {
	method, err := models.ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, utils.ErrInvalidPaymentMethod
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if !method.AcceptsCurrency(currency) {
		return nil, fmt.Errorf("%w: %s does not accept %s", utils.ErrInvalidPaymentMethod, method, currency)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", utils.ErrInvalidInput)
	}

	order, err := s.orderByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	switch {
	case order.Status.IsSettled():
		return nil, utils.ErrOrderAlreadyPaid
	case order.Status != models.OrderPending:
		return nil, fmt.Errorf("%w: order is %s", utils.ErrInvalidStatusTransition, order.Status)
	}

	if _, err := s.confirmations.GetPendingByOrder(ctx, order.ID); err == nil {
		return nil, utils.ErrConfirmationPending
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check pending confirmation: %w", err)
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	expected, err := ConvertAmount(order.AmountCents, order.Currency, currency, settings.ExchangeRate)
	if err != nil {
		return nil, err
	}

	pc := &models.PaymentConfirmation{
		OrderID:              order.ID,
		Method:               method,
		PayerPhone:           trimmed(req.PayerPhone),
		TransactionReference: strings.TrimSpace(req.TransactionReference),
		AmountCents:          req.Amount,
		Currency:             currency,
		Note:                 trimmed(req.Note),
		AmountMatches:        req.Amount == expected,
	}
	if receipt != nil && len(receipt.Data) > 0 {
		key, err := s.storeReceipt(ctx, order.ReferenceCode, receipt)
		if err != nil {
			return nil, err
		}
		pc.ReceiptPath = &key
	}

	if err := s.confirmations.Create(ctx, pc); err != nil {
		if pc.ReceiptPath != nil {
			s.discardReceipt(ctx, *pc.ReceiptPath)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, utils.ErrConfirmationPending
		}
		return nil, fmt.Errorf("save confirmation: %w", err)
	}
	s.metrics.ConfirmationSubmitted(string(method), pc.AmountMatches)

	log.Info().
		Int64("order_id", order.ID).
		Int64("confirmation_id", pc.ID).
		Str("method", string(method)).
		Int64("amount_cents", pc.AmountCents).
		Int64("expected_cents", expected).
		Bool("amount_matches", pc.AmountMatches).
		Msg("Payment confirmation submitted")

	result := &ConfirmationResult{
		ConfirmationID:      pc.ID,
		ReviewStatus:        pc.ReviewStatus,
		AmountMatches:       pc.AmountMatches,
		ExpectedAmountCents: expected,
		OrderStatus:         order.Status,
	}

	if s.autoApprove && pc.AmountMatches {
		outcome, err := s.fulfillment.ConfirmOrderPayment(ctx, ConfirmPaymentInput{
			OrderID:        order.ID,
			Source:         SourceAutoApprove,
			ConfirmationID: &pc.ID,
		})
		if err != nil {
			log.Error().Err(err).Int64("confirmation_id", pc.ID).Msg("Auto-approval failed, leaving confirmation for review")
		} else {
			pc.ReviewStatus = models.ReviewApproved
			pc.AutoApproved = true
			result.ReviewStatus = models.ReviewApproved
			result.AutoApproved = true
			result.OrderStatus = outcome.Order.Status
			order = outcome.Order
		}
	}

	s.events.NotifyConfirmationSubmitted(order, pc)
	if s.notify != nil {
		s.notify.ConfirmationSubmitted(ctx, order, s.productName(ctx, order.ProductID), pc, expected)
	}
	return result, nil
}

// discardReceipt removes a receipt whose confirmation row was never written.
func (s *PaymentService) discardReceipt(ctx context.Context, key string) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.storage.Delete(cleanupCtx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to remove orphaned receipt")
	}
}

func (s *PaymentService) storeReceipt(ctx context.Context, referenceCode string, receipt *Upload) (string, error) {
	if int64(len(receipt.Data)) > s.maxReceiptBytes {
		return "", utils.ErrReceiptTooLarge
	}
	contentType, ext, ok := sniff(receipt.Data, receiptTypes)
	if !ok {
		return "", fmt.Errorf("%w: unsupported content type %s", utils.ErrInvalidReceipt, contentType)
	}
	if s.storage == nil {
		return "", utils.ErrStorageUnavailable
	}
	key := objectKey("receipts", referenceCode, ext)
	if err := s.storage.Upload(ctx, key, receipt.Data, contentType); err != nil {
		return "", fmt.Errorf("upload receipt: %w", err)
	}
	return key, nil
}

func (s *PaymentService) orderByToken(ctx context.Context, token string) (*models.Order, error) {
	return loadOrderByToken(ctx, s.orders, token)
}

func (s *PaymentService) productName(ctx context.Context, productID int64) string {
	if p, err := s.products.GetByID(ctx, productID); err == nil {
		return p.Name
	}
	return ""
}

func loadOrderByToken(ctx context.Context, orders OrderStore, token string) (*models.Order, error) {
	if !utils.IsAccessToken(token) {
		return nil, utils.ErrOrderNotFound
	}
	order, err := orders.GetByAccessToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrOrderNotFound
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	return order, nil
}

func snapshot(pc *models.PaymentConfirmation) *ConfirmationSnapshot {
	return &ConfirmationSnapshot{
		ID:           pc.ID,
		Method:       pc.Method,
		AmountCents:  pc.AmountCents,
		Currency:     pc.Currency,
		ReviewStatus: pc.ReviewStatus,
		CreatedAt:    pc.CreatedAt,
	}
}
