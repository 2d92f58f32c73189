package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/storefront_api/internal/models"
)

func TestAdminRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.doJSON(http.MethodGet, "/v1/admin/orders", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.doJSON(http.MethodGet, "/v1/admin/orders", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, w))

	w = ts.doJSON(http.MethodPost, "/v1/admin/auth/login", gin.H{"email": "nobody@studio.example", "password": "whatever"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, w))
}

func TestSettingsOptimisticVersioning(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.adminToken(t)

	w := ts.doJSON(http.MethodGet, "/v1/admin/settings", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	var current models.SiteSettings
	decodeData(t, w, &current)
	assert.Zero(t, current.Version)
	assert.Equal(t, "1500", current.ExchangeRate.String())

	update := gin.H{"expectedVersion": 0, "exchangeRate": "1600", "momoNumber": " +211920000001 "}
	w = ts.doJSON(http.MethodPut, "/v1/admin/settings", update, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var saved models.SiteSettings
	decodeData(t, w, &saved)
	assert.Equal(t, int64(1), saved.Version)
	assert.Equal(t, "+211920000001", saved.MomoNumber)

	w = ts.doJSON(http.MethodPut, "/v1/admin/settings", update, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SETTINGS_VERSION_CONFLICT", errorCode(t, w))

	w = ts.doJSON(http.MethodPut, "/v1/admin/settings", gin.H{"expectedVersion": 1, "exchangeRate": "0"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", errorCode(t, w))

	// New rate flows into the buyer payment page.
	p := ts.product(t, 1000)
	res := checkout(t, ts, p.ID, "download")
	w = ts.doJSON(http.MethodGet, "/v1/store/pay/"+res.AccessToken, nil, "")
	var instructions struct {
		ExpectedAmounts map[string]int64 `json:"expectedAmounts"`
	}
	decodeData(t, w, &instructions)
	assert.Equal(t, int64(1600000), instructions.ExpectedAmounts[models.CurrencySSP])
}

func TestProductManagementRoutes(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.adminToken(t)

	body := gin.H{"name": "Pharmacy POS", "priceCents": 90000, "currency": "USD", "isPublished": true}
	w := ts.doJSON(http.MethodPost, "/v1/admin/products", body, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Product
	decodeData(t, w, &created)
	assert.Equal(t, "pharmacy-pos", created.Slug)

	w = ts.doJSON(http.MethodPost, "/v1/admin/products", body, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SLUG_TAKEN", errorCode(t, w))

	w = ts.doJSON(http.MethodPost, "/v1/admin/products", gin.H{"name": "Broken", "currency": "EUR"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))

	req := multipartRequest(t, fmt.Sprintf("/v1/admin/products/%d/screenshots", created.ID), nil, "file", "home.png", pngHeader)
	req.Header.Set("Authorization", "Bearer "+admin)
	w = ts.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var withShot models.Product
	decodeData(t, w, &withShot)
	require.Len(t, withShot.ScreenshotPaths, 1)
	assert.True(t, strings.HasPrefix(withShot.ScreenshotPaths[0], "screenshots/pharmacy-pos/"))

	req = multipartRequest(t, fmt.Sprintf("/v1/admin/products/%d/screenshots", created.ID), nil, "", "", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	assert.Equal(t, http.StatusBadRequest, ts.do(req).Code)

	w = ts.doJSON(http.MethodGet, "/v1/store/products/pharmacy-pos", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.doJSON(http.MethodGet, "/v1/admin/products/abc", nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))

	w = ts.doJSON(http.MethodDelete, fmt.Sprintf("/v1/admin/products/%d", created.ID), nil, admin)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = ts.doJSON(http.MethodGet, fmt.Sprintf("/v1/admin/products/%d", created.ID), nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminOrderListAndRejection(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.adminToken(t)
	p := ts.product(t, 1000)
	first := checkout(t, ts, p.ID, "download")
	checkout(t, ts, p.ID, "deploy")

	w := ts.doJSON(http.MethodGet, "/v1/admin/orders?status=pending&limit=1", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	require.NotNil(t, env.Meta.Pagination)
	assert.Equal(t, 2, env.Meta.Pagination.TotalItems)
	assert.Equal(t, 1, env.Meta.Pagination.Limit)

	w = ts.doJSON(http.MethodPost, "/v1/store/pay/"+first.AccessToken+"/confirmations",
		gin.H{"method": "equity", "transactionReference": "EQ-77", "amount": 999, "currency": "USD"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var claim struct {
		ConfirmationID int64 `json:"confirmationId"`
		AmountMatches  bool  `json:"amountMatches"`
	}
	decodeData(t, w, &claim)
	assert.False(t, claim.AmountMatches)

	w = ts.doJSON(http.MethodPost, fmt.Sprintf("/v1/admin/payment-confirmations/%d/reject", claim.ConfirmationID),
		gin.H{"reason": "Amount short", "markOrderFailed": true}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"orderFailed":true`)

	order, err := ts.store.Orders.GetByAccessToken(context.Background(), first.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.OrderFailed, order.Status)

	w = ts.doJSON(http.MethodPatch, fmt.Sprintf("/v1/admin/orders/%d", order.ID), gin.H{"status": "cancelled"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", errorCode(t, w))
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	p := ts.product(t, 1000)
	checkout(t, ts, p.ID, "download")

	w := ts.doJSON(http.MethodGet, "/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":{"status":"connected"}`)

	w = ts.doJSON(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "storefront_orders_created_total")
	assert.Contains(t, w.Body.String(), "storefront_http_requests_total")
}
