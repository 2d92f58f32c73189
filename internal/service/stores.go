package service

import (
	"context"
	"time"

	"github.com/GTDGit/storefront_api/internal/mail"
	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/pkg/payssd"
)

// ProductStore is the product persistence used by services.
type ProductStore interface {
	ListPublished(ctx context.Context) ([]models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]models.Product, int, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id int64) error
	AddScreenshot(ctx context.Context, id int64, path string) (*models.Product, error)
	SetDeliverable(ctx context.Context, id int64, path string) (*models.Product, error)
}

// OrderStore is the order persistence used by services.
type OrderStore interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	GetByAccessToken(ctx context.Context, token string) (*models.Order, error)
	GetByReferenceCode(ctx context.Context, code string) (*models.Order, error)
	SetGatewaySession(ctx context.Context, id int64, sessionID, checkoutURL string) error
	UpdateAdminNotes(ctx context.Context, id int64, notes *string) error
	TransitionStatus(ctx context.Context, id int64, from []models.OrderStatus, to models.OrderStatus) (bool, error)
	List(ctx context.Context, filter repository.OrderFilter) ([]repository.OrderView, int, error)
	ListGatewayPending(ctx context.Context, createdAfter, createdBefore time.Time, limit int) ([]models.Order, error)
	ConfirmPayment(ctx context.Context, p repository.ConfirmPaymentParams) (*repository.ConfirmPaymentResult, error)
}

// ConfirmationStore is the payment confirmation persistence used by services.
type ConfirmationStore interface {
	Create(ctx context.Context, pc *models.PaymentConfirmation) error
	GetByID(ctx context.Context, id int64) (*models.PaymentConfirmation, error)
	GetPendingByOrder(ctx context.Context, orderID int64) (*models.PaymentConfirmation, error)
	ListByOrder(ctx context.Context, orderID int64) ([]models.PaymentConfirmation, error)
	List(ctx context.Context, filter repository.ConfirmationFilter) ([]repository.ConfirmationView, int, error)
	Reject(ctx context.Context, p repository.RejectParams) (*repository.RejectResult, error)
}

// LicenseStore reads issued license keys.
type LicenseStore interface {
	GetByOrder(ctx context.Context, orderID int64) (*models.LicenseKey, error)
}

// DeployRequestStore is the deploy request persistence used by services.
type DeployRequestStore interface {
	GetByOrder(ctx context.Context, orderID int64) (*models.DeployRequest, error)
	GetByID(ctx context.Context, id int64) (*repository.DeployRequestView, error)
	List(ctx context.Context, filter repository.DeployRequestFilter) ([]repository.DeployRequestView, int, error)
	Update(ctx context.Context, id int64, status models.DeployStatus, notes *string) error
}

// SystemRequestStore is the lead persistence used by services.
type SystemRequestStore interface {
	Create(ctx context.Context, sr *models.SystemRequest) error
	GetByID(ctx context.Context, id int64) (*models.SystemRequest, error)
	List(ctx context.Context, filter repository.SystemRequestFilter) ([]models.SystemRequest, int, error)
	Update(ctx context.Context, id int64, status models.LeadStatus, notes *string) error
}

// SettingsStore is the versioned settings persistence used by services.
type SettingsStore interface {
	Current(ctx context.Context) (*models.SiteSettings, error)
	Append(ctx context.Context, expectedVersion int64, s *models.SiteSettings) error
}

// WebhookEventStore records inbound webhooks.
type WebhookEventStore interface {
	Record(ctx context.Context, ev *models.WebhookEvent) error
	MarkProcessed(ctx context.Context, id int64, processErr *string) error
}

// AdminUserStore is the admin account persistence used by services.
type AdminUserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Create(ctx context.Context, user *models.AdminUser) error
	TouchLastLogin(ctx context.Context, id int64) error
}

// ObjectStorage stores uploaded files.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	PresignGet(ctx context.Context, key, filename string) (string, error)
	PublicURL(key string) string
	Delete(ctx context.Context, key string) error
}

// Gateway is the hosted checkout provider.
type Gateway interface {
	Configured() bool
	CreateCheckoutSession(ctx context.Context, req payssd.CreateSessionRequest) (*payssd.Session, error)
	GetSession(ctx context.Context, sessionID string) (*payssd.Session, error)
}

// CatalogCache caches the public catalog.
type CatalogCache interface {
	GetProducts(ctx context.Context) ([]models.Product, bool)
	SetProducts(ctx context.Context, products []models.Product)
	GetProduct(ctx context.Context, slug string) (*models.Product, bool)
	SetProduct(ctx context.Context, p *models.Product)
	Invalidate(ctx context.Context)
}

// MailSender delivers rendered messages.
type MailSender interface {
	Send(ctx context.Context, msg mail.Message) error
}
