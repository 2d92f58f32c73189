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
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/utils"
	"github.com/GTDGit/storefront_api/pkg/payssd"
)

const orderCreateAttempts = 3

// CheckoutRequest is the buyer's checkout form.
type CheckoutRequest struct {
	ProductID    int64   `json:"productId" binding:"required,gt=0"`
	LicenseType  string  `json:"licenseType" binding:"required,oneof=single multi"`
	DeliveryType string  `json:"deliveryType" binding:"required,oneof=download deploy both"`
	BuyerPhone   string  `json:"buyerPhone" binding:"required,phone"`
	BuyerName    *string `json:"buyerName" binding:"omitempty,max=120"`
	BuyerEmail   *string `json:"buyerEmail" binding:"omitempty,blank|email,max=254"`
}

// CheckoutResult tells the buyer where to pay. CheckoutURL is empty when the
// gateway was unavailable and the manual payment page must be used.
type CheckoutResult struct {
	AccessToken   string             `json:"accessToken"`
	ReferenceCode string             `json:"referenceCode"`
	Status        models.OrderStatus `json:"status"`
	AmountCents   int64              `json:"amountCents"`
	Currency      string             `json:"currency"`
	CheckoutURL   string             `json:"checkoutUrl,omitempty"`
	PaymentURL    string             `json:"paymentUrl"`
	OrderURL      string             `json:"orderUrl"`
	RedirectURL   string             `json:"redirectUrl"`
}

// CheckoutService creates orders and opens gateway sessions.
type CheckoutService struct {
	products ProductStore
	orders   OrderStore
	gateway  Gateway
	siteURL  string
	metrics  *metrics.Metrics
}

// NewCheckoutService constructs a CheckoutService.
func NewCheckoutService(products ProductStore, orders OrderStore, gateway Gateway, siteURL string, m *metrics.Metrics) *CheckoutService {
	return &CheckoutService{
		products: products,
		orders:   orders,
		gateway:  gateway,
		siteURL:  siteURL,
		metrics:  m,
	}
}

// Checkout creates a pending order for a published product and tries to open
// a hosted checkout session for it. A gateway failure never fails checkout.
func (s *CheckoutService) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResult, error) {
	licenseType, err := models.ParseLicenseType(req.LicenseType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidInput, err)
	}
	deliveryType, err := models.ParseDeliveryType(req.DeliveryType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrInvalidInput, err)
	}

	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.ErrProductNotFound
		}
		return nil, fmt.Errorf("load product %d: %w", req.ProductID, err)
	}
	if !product.IsPublished {
		return nil, utils.ErrProductUnavailable
	}

	amount, err := CalculateTotal(product, licenseType, deliveryType)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ProductID:    product.ID,
		BuyerName:    trimmed(req.BuyerName),
		BuyerEmail:   trimmed(req.BuyerEmail),
		BuyerPhone:   strings.TrimSpace(req.BuyerPhone),
		LicenseType:  licenseType,
		DeliveryType: deliveryType,
		AmountCents:  amount,
		Currency:     product.Currency,
		Status:       models.OrderPending,
	}
	if err := s.createOrder(ctx, order); err != nil {
		return nil, err
	}

	log.Info().
		Int64("order_id", order.ID).
		Str("reference", order.ReferenceCode).
		Int64("product_id", product.ID).
		Int64("amount_cents", amount).
		Str("currency", order.Currency).
		Msg("Order created")

	result := &CheckoutResult{
		AccessToken:   order.AccessToken,
		ReferenceCode: order.ReferenceCode,
		Status:        order.Status,
		AmountCents:   order.AmountCents,
		Currency:      order.Currency,
		PaymentURL:    s.siteURL + "/store/pay/" + order.AccessToken,
		OrderURL:      s.siteURL + "/store/orders/" + order.AccessToken,
	}

	if checkoutURL, ok := s.openSession(ctx, order, product); ok {
		result.CheckoutURL = checkoutURL
		result.RedirectURL = checkoutURL
	} else {
		result.RedirectURL = result.PaymentURL
	}
	s.metrics.OrderCreated(string(deliveryType), result.CheckoutURL != "")
	return result, nil
}

// createOrder assigns fresh tokens and retries on the unlikely collision.
func (s *CheckoutService) createOrder(ctx context.Context, order *models.Order) error {
	var err error
	for attempt := 1; attempt <= orderCreateAttempts; attempt++ {
		if order.AccessToken, err = utils.GenerateAccessToken(); err != nil {
			return fmt.Errorf("generate access token: %w", err)
		}
		if order.ReferenceCode, err = utils.GenerateReferenceCode(); err != nil {
			return fmt.Errorf("generate reference code: %w", err)
		}
		err = s.orders.Create(ctx, order)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (s *CheckoutService) openSession(ctx context.Context, order *models.Order, product *models.Product) (string, bool) {
	if s.gateway == nil || !s.gateway.Configured() {
		log.Warn().Str("reference", order.ReferenceCode).Msg("Payment gateway not configured, using manual payment")
		return "", false
	}

	start := time.Now()
	session, err := s.gateway.CreateCheckoutSession(ctx, payssd.CreateSessionRequest{
		Amount:      order.AmountCents,
		Currency:    order.Currency,
		Reference:   order.ReferenceCode,
		Description: product.Name,
		CallbackURL: s.siteURL + "/store/orders/" + order.AccessToken,
		Customer: payssd.Customer{
			Name:  deref(order.BuyerName),
			Email: order.BuyerEmailAddress(),
			Phone: order.BuyerPhone,
		},
		Metadata: map[string]string{
			"order_id":       strconv.FormatInt(order.ID, 10),
			"reference_code": order.ReferenceCode,
		},
	})
	s.metrics.ObserveGateway(time.Since(start))
	if err != nil {
		log.Error().Err(err).Str("reference", order.ReferenceCode).Msg("Failed to create gateway session, using manual payment")
		return "", false
	}

	if err := s.orders.SetGatewaySession(ctx, order.ID, session.ID, session.CheckoutURL); err != nil {
		log.Error().Err(err).Str("reference", order.ReferenceCode).Msg("Failed to store gateway session")
	}
	order.GatewaySessionID = &session.ID
	order.CheckoutURL = &session.CheckoutURL
	return session.CheckoutURL, true
}

// trimmed returns nil for absent or blank strings.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
