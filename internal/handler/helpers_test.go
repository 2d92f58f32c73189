package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/storefront_api/internal/config"
	"github.com/GTDGit/storefront_api/internal/mail"
	"github.com/GTDGit/storefront_api/internal/metrics"
	"github.com/GTDGit/storefront_api/internal/middleware"
	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository/repotest"
	"github.com/GTDGit/storefront_api/internal/service"
	"github.com/GTDGit/storefront_api/internal/sse"
	"github.com/GTDGit/storefront_api/internal/utils"
	"github.com/GTDGit/storefront_api/pkg/payssd"
)

const (
	testWebhookSecret = "whsec_test"
	testFormLimit     = 3
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func init() {
	gin.SetMode(gin.TestMode)
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memStorage) PresignGet(ctx context.Context, key, filename string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return "", errors.New("no such key")
	}
	return "https://signed.example/" + key, nil
}

func (s *memStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memStorage) PublicURL(key string) string { return "https://cdn.example/" + key }

type offlineGateway struct{}

func (offlineGateway) Configured() bool { return false }

func (offlineGateway) CreateCheckoutSession(ctx context.Context, req payssd.CreateSessionRequest) (*payssd.Session, error) {
	return nil, errors.New("gateway not configured")
}

func (offlineGateway) GetSession(ctx context.Context, id string) (*payssd.Session, error) {
	return nil, errors.New("gateway not configured")
}

type discardMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *discardMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

type testServer struct {
	router  *gin.Engine
	store   *repotest.Store
	storage *memStorage
	mailer  *discardMailer
	metrics *metrics.Metrics
	reg     *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	require.NoError(t, RegisterValidators())
	utils.InitJWT("handler-secret", time.Hour)

	renderer, err := mail.NewRenderer()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	ts := &testServer{
		store:   repotest.NewStore(),
		storage: &memStorage{objects: map[string][]byte{}},
		mailer:  &discardMailer{},
		metrics: metrics.New(reg),
		reg:     reg,
	}
	st := ts.store
	hub := sse.NewHub()
	events := sse.NewHubNotifier(hub)
	payout := config.PayoutConfig{ExchangeRate: "1500", MomoNumber: "+211920000000", MomoName: "Studio"}

	notify := service.NewNotificationService(ts.mailer, renderer, "admin@studio.example", "https://studio.example", ts.metrics)
	settings := service.NewSettingsService(st.Settings, payout)
	fulfillment := service.NewFulfillmentService(st.Orders, st.Products, notify, events, ts.metrics)
	orders := service.NewOrderService(st.Orders, st.Products, st.Licenses, st.DeployRequests, st.Confirmations, ts.storage, "Studio", "https://studio.example")
	payments := service.NewPaymentService(st.Orders, st.Products, st.Confirmations, settings, ts.storage, fulfillment, notify, events, ts.metrics,
		service.PaymentServiceConfig{MaxReceiptBytes: 1024})
	leads := service.NewLeadService(st.SystemRequests, notify, events)

	h := &Handlers{
		Health:            NewHealthHandler(map[string]Check{"database": func(context.Context) error { return nil }}),
		Product:           NewProductHandler(service.NewCatalogService(st.Products, nil, ts.storage)),
		Checkout:          NewCheckoutHandler(service.NewCheckoutService(st.Products, st.Orders, offlineGateway{}, "https://studio.example", ts.metrics), payments, 1024),
		Order:             NewOrderHandler(orders),
		SSE:               NewSSEHandler(hub, orders),
		Webhook:           NewWebhookHandler(service.NewWebhookService(st.WebhookEvents, st.Orders, fulfillment, testWebhookSecret, 5*time.Minute, ts.metrics)),
		Form:              NewFormHandler(leads),
		Auth:              NewAuthHandler(service.NewAdminAuthService(st.AdminUsers)),
		ProductManagement: NewProductManagementHandler(service.NewProductManagementService(st.Products, ts.storage, nil)),
		AdminOrder:        NewAdminOrderHandler(service.NewAdminOrderService(st.Orders, st.Products, st.Licenses, st.DeployRequests, st.Confirmations, fulfillment, events)),
		Confirmation:      NewConfirmationHandler(service.NewConfirmationReviewService(st.Confirmations, st.Orders, st.Products, settings, ts.storage, fulfillment, events)),
		DeployRequest:     NewDeployRequestHandler(service.NewDeployRequestService(st.DeployRequests)),
		SystemRequest:     NewSystemRequestHandler(leads),
		Settings:          NewSettingsHandler(settings),
	}

	ts.router = gin.New()
	ts.router.Use(middleware.LoggingMiddleware())
	ts.router.Use(middleware.MetricsMiddleware(ts.metrics))
	RegisterRoutes(ts.router, h, RouteMiddleware{
		JWT:       middleware.NewJWTMiddleware(),
		StreamJWT: middleware.NewStreamJWTMiddleware(),
		FormLimit: middleware.NewMemoryLimiter(testFormLimit, time.Minute),
		Metrics:   ts.metrics,
		Gatherer:  reg,
	})
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) doJSON(method, path string, body any, token string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ts.do(req)
}

func (ts *testServer) product(t *testing.T, priceCents int64) *models.Product {
	t.Helper()
	p := &models.Product{
		Slug:             "school-system-" + strconv.FormatInt(priceCents, 10),
		Name:             "School System",
		PriceCents:       priceCents,
		DeployPriceCents: 20000,
		Currency:         models.CurrencyUSD,
		IsPublished:      true,
	}
	require.NoError(t, ts.store.Products.Create(context.Background(), p))
	return p
}

func (ts *testServer) adminToken(t *testing.T) string {
	t.Helper()
	hash, err := service.HashPassword("correct horse")
	require.NoError(t, err)
	require.NoError(t, ts.store.AdminUsers.Create(context.Background(), &models.AdminUser{
		Email:        "owner@studio.example",
		PasswordHash: hash,
		Name:         "Owner",
		IsActive:     true,
	}))

	w := ts.doJSON(http.MethodPost, "/v1/admin/auth/login", gin.H{"email": "owner@studio.example", "password": "correct horse"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	decodeData(t, w, &res)
	return res.Token
}

// envelope mirrors utils.Response with a raw data field.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta struct {
		Pagination *utils.Pagination `json:"pagination"`
	} `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	env := decode(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, w)
	require.NotNil(t, env.Error, w.Body.String())
	return env.Error.Code
}

// multipartRequest builds a form post with an optional file field.
func multipartRequest(t *testing.T, path string, fields map[string]string, fileField, filename string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
