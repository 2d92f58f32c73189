package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/receipt"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// BuyerOrder is the order page shown to whoever holds the access token.
type BuyerOrder struct {
	ReferenceCode string                `json:"referenceCode"`
	Status        models.OrderStatus    `json:"status"`
	Settled       bool                  `json:"settled"`
	AmountCents   int64                 `json:"amountCents"`
	Currency      string                `json:"currency"`
	LicenseType   models.LicenseType    `json:"licenseType"`
	DeliveryType  models.DeliveryType   `json:"deliveryType"`
	Product       ProductSummary        `json:"product"`
	LicenseKey    *string               `json:"licenseKey,omitempty"`
	DeployStatus  *models.DeployStatus  `json:"deployStatus,omitempty"`
	Confirmation  *ConfirmationSnapshot `json:"confirmation,omitempty"`
	CheckoutURL   *string               `json:"checkoutUrl,omitempty"`
	CanDownload   bool                  `json:"canDownload"`
	PaidAt        *time.Time            `json:"paidAt,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
}

// ProductSummary is the product part of an order page.
type ProductSummary struct {
	ID           int64   `json:"id"`
	Slug         string  `json:"slug"`
	Name         string  `json:"name"`
	ThumbnailURL *string `json:"thumbnailUrl,omitempty"`
}

// OrderService serves buyer-facing order reads.
type OrderService struct {
	orders        OrderStore
	products      ProductStore
	licenses      LicenseStore
	deploys       DeployRequestStore
	confirmations ConfirmationStore
	storage       ObjectStorage
	sellerName    string
	siteURL       string
}

// NewOrderService constructs an OrderService.
func NewOrderService(
	orders OrderStore,
	products ProductStore,
	licenses LicenseStore,
	deploys DeployRequestStore,
	confirmations ConfirmationStore,
	storage ObjectStorage,
	sellerName, siteURL string,
) *OrderService {
	return &OrderService{
		orders:        orders,
		products:      products,
		licenses:      licenses,
		deploys:       deploys,
		confirmations: confirmations,
		storage:       storage,
		sellerName:    sellerName,
		siteURL:       siteURL,
	}
}

// GetOrder returns the order page for token.
func (s *OrderService) GetOrder(ctx context.Context, token string) (*BuyerOrder, error) {
	order, err := loadOrderByToken(ctx, s.orders, token)
	if err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, order.ProductID)
	if err != nil {
		return nil, fmt.Errorf("load product %d: %w", order.ProductID, err)
	}

	out := &BuyerOrder{
		ReferenceCode: order.ReferenceCode,
		Status:        order.Status,
		Settled:       order.Status.IsSettled(),
		AmountCents:   order.AmountCents,
		Currency:      order.Currency,
		LicenseType:   order.LicenseType,
		DeliveryType:  order.DeliveryType,
		Product: ProductSummary{
			ID:   product.ID,
			Slug: product.Slug,
			Name: product.Name,
		},
		PaidAt:    order.PaidAt,
		CreatedAt: order.CreatedAt,
	}
	if product.ThumbnailPath != nil && s.storage != nil {
		u := s.storage.PublicURL(*product.ThumbnailPath)
		out.Product.ThumbnailURL = &u
	}
	if order.Status == models.OrderPending {
		out.CheckoutURL = order.CheckoutURL
	}

	if out.Settled {
		lk, err := s.licenses.GetByOrder(ctx, order.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load license: %w", err)
		}
		if lk != nil {
			out.LicenseKey = &lk.LicenseKey
		}
		out.CanDownload = order.DeliveryType.IncludesDownload() && product.DeliverablePath != nil
	}

	if order.DeliveryType.IncludesDeploy() {
		dr, err := s.deploys.GetByOrder(ctx, order.ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load deploy request: %w", err)
		}
		if dr != nil {
			out.DeployStatus = &dr.Status
		}
	}

	list, err := s.confirmations.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("load confirmations: %w", err)
	}
	if len(list) > 0 {
		out.Confirmation = snapshot(&list[0])
	}
	return out, nil
}

// Receipt renders the PDF receipt of a settled order.
func (s *OrderService) Receipt(ctx context.Context, token string) ([]byte, string, error) {
	order, err := loadOrderByToken(ctx, s.orders, token)
	if err != nil {
		return nil, "", err
	}
	if !order.Status.IsSettled() {
		return nil, "", utils.ErrOrderNotSettled
	}
	product, err := s.products.GetByID(ctx, order.ProductID)
	if err != nil {
		return nil, "", fmt.Errorf("load product %d: %w", order.ProductID, err)
	}

	data := receipt.Data{
		SellerName:    s.sellerName,
		SellerURL:     s.siteURL,
		ReferenceCode: order.ReferenceCode,
		BuyerName:     deref(order.BuyerName),
		BuyerEmail:    order.BuyerEmailAddress(),
		BuyerPhone:    order.BuyerPhone,
		ProductName:   product.Name,
		LicenseType:   string(order.LicenseType),
		DeliveryType:  string(order.DeliveryType),
		Total:         FormatMoney(order.AmountCents, order.Currency),
		Status:        string(order.Status),
	}
	if order.PaidAt != nil {
		data.DatePaid = order.PaidAt.UTC().Format("2006-01-02")
	}
	if lk, err := s.licenses.GetByOrder(ctx, order.ID); err == nil {
		data.LicenseKey = lk.LicenseKey
	}

	pdf, err := receipt.Render(data)
	if err != nil {
		return nil, "", err
	}
	return pdf, "receipt-" + order.ReferenceCode + ".pdf", nil
}

// DownloadURL returns a short-lived link to the product deliverable.
func (s *OrderService) DownloadURL(ctx context.Context, token string) (string, error) {
	order, err := loadOrderByToken(ctx, s.orders, token)
	if err != nil {
		return "", err
	}
	if !order.Status.IsSettled() {
		return "", utils.ErrOrderNotSettled
	}
	if !order.DeliveryType.IncludesDownload() {
		return "", utils.ErrDeliverableUnavailable
	}
	product, err := s.products.GetByID(ctx, order.ProductID)
	if err != nil {
		return "", fmt.Errorf("load product %d: %w", order.ProductID, err)
	}
	if product.DeliverablePath == nil || *product.DeliverablePath == "" || s.storage == nil {
		return "", utils.ErrDeliverableUnavailable
	}
	return s.storage.PresignGet(ctx, *product.DeliverablePath, path.Base(*product.DeliverablePath))
}
