package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GTDGit/storefront_api/internal/mail"
	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository/repotest"
	"github.com/GTDGit/storefront_api/internal/utils"
	"github.com/GTDGit/storefront_api/pkg/payssd"
)

const testSiteURL = "https://studio.example"

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

func (m *fakeMailer) to(addr string) []mail.Message {
	var out []mail.Message
	for _, msg := range m.messages() {
		for _, to := range msg.To {
			if to == addr {
				out = append(out, msg)
			}
		}
	}
	return out
}

type fakeGateway struct {
	configured bool
	err        error
	requests   []payssd.CreateSessionRequest
	sessions   map[string]*payssd.Session
}

func (g *fakeGateway) Configured() bool { return g.configured }

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, req payssd.CreateSessionRequest) (*payssd.Session, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	id := fmt.Sprintf("cs_%d", len(g.requests))
	return &payssd.Session{ID: id, Status: payssd.SessionPending, CheckoutURL: "https://pay.example/" + id}, nil
}

func (g *fakeGateway) GetSession(ctx context.Context, sessionID string) (*payssd.Session, error) {
	if g.err != nil {
		return nil, g.err
	}
	s, ok := g.sessions[sessionID]
	if !ok {
		return nil, &payssd.APIError{StatusCode: 404, Message: "not found"}
	}
	return s, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *fakeStorage) PresignGet(ctx context.Context, key, filename string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return "", errors.New("no such key")
	}
	return "https://signed.example/" + key + "?filename=" + filename, nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.types, key)
	return nil
}

func (s *fakeStorage) PublicURL(key string) string {
	return "https://cdn.example/" + key
}

type recordingNotifier struct {
	mu            sync.Mutex
	orders        []models.Order
	confirmations []models.PaymentConfirmation
	leads         []string
}

func (n *recordingNotifier) NotifyOrderUpdated(order *models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, *order)
}

func (n *recordingNotifier) NotifyConfirmationSubmitted(order *models.Order, pc *models.PaymentConfirmation) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmations = append(n.confirmations, *pc)
}

func (n *recordingNotifier) NotifyLeadReceived(kind, name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.leads = append(n.leads, kind+":"+name)
}

func (n *recordingNotifier) orderUpdates() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orders)
}

type memoryCatalogCache struct {
	products    []models.Product
	bySlug      map[string]*models.Product
	invalidated int
}

func (c *memoryCatalogCache) GetProducts(ctx context.Context) ([]models.Product, bool) {
	return c.products, c.products != nil
}

func (c *memoryCatalogCache) SetProducts(ctx context.Context, products []models.Product) {
	c.products = products
}

func (c *memoryCatalogCache) GetProduct(ctx context.Context, slug string) (*models.Product, bool) {
	p, ok := c.bySlug[slug]
	return p, ok
}

func (c *memoryCatalogCache) SetProduct(ctx context.Context, p *models.Product) {
	if c.bySlug == nil {
		c.bySlug = map[string]*models.Product{}
	}
	c.bySlug[p.Slug] = p
}

func (c *memoryCatalogCache) Invalidate(ctx context.Context) {
	c.products = nil
	c.bySlug = nil
	c.invalidated++
}

// harness wires every service over one in-memory store.
type harness struct {
	store    *repotest.Store
	mailer   *fakeMailer
	gateway  *fakeGateway
	storage  *fakeStorage
	events   *recordingNotifier
	notify   *NotificationService
	settings *SettingsService

	fulfillment *FulfillmentService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	renderer, err := mail.NewRenderer()
	require.NoError(t, err)

	h := &harness{
		store:   repotest.NewStore(),
		mailer:  &fakeMailer{},
		gateway: &fakeGateway{configured: true},
		storage: newFakeStorage(),
		events:  &recordingNotifier{},
	}
	h.notify = NewNotificationService(h.mailer, renderer, "admin@studio.example", testSiteURL, nil)
	h.settings = NewSettingsService(h.store.Settings, testPayout())
	h.fulfillment = NewFulfillmentService(h.store.Orders, h.store.Products, h.notify, h.events, nil)
	return h
}

func (h *harness) product(t *testing.T, p models.Product) *models.Product {
	t.Helper()
	if p.Slug == "" {
		p.Slug = "school-system"
	}
	if p.Name == "" {
		p.Name = "School System"
	}
	if p.Currency == "" {
		p.Currency = models.CurrencyUSD
	}
	require.NoError(t, h.store.Products.Create(context.Background(), &p))
	return &p
}

func (h *harness) order(t *testing.T, product *models.Product, dt models.DeliveryType, email string) *models.Order {
	t.Helper()
	token, err := utils.GenerateAccessToken()
	require.NoError(t, err)
	ref, err := utils.GenerateReferenceCode()
	require.NoError(t, err)
	amount, err := CalculateTotal(product, models.LicenseSingle, dt)
	require.NoError(t, err)

	o := &models.Order{
		ProductID:     product.ID,
		AccessToken:   token,
		ReferenceCode: ref,
		BuyerPhone:    "+211912345678",
		LicenseType:   models.LicenseSingle,
		DeliveryType:  dt,
		AmountCents:   amount,
		Currency:      product.Currency,
		Status:        models.OrderPending,
	}
	if email != "" {
		o.BuyerEmail = &email
	}
	require.NoError(t, h.store.Orders.Create(context.Background(), o))
	return o
}

func strPtr(s string) *string { return &s }
