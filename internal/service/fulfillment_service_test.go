package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/utils"
)

func TestConfirmOrderPaymentIssuesLicenseOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, models.Product{PriceCents: 25000, DeployPriceCents: 5000})
	o := h.order(t, p, models.DeliveryBoth, "buyer@example.com")

	first, err := h.fulfillment.ConfirmOrderPayment(ctx, ConfirmPaymentInput{OrderID: o.ID, Source: SourceWebhook, ProviderReference: strPtr("pay_1")})
	require.NoError(t, err)
	assert.True(t, first.Transitioned)
	assert.Equal(t, models.OrderPaid, first.Order.Status)
	require.NotNil(t, first.Order.PaidAt)
	assert.Equal(t, "pay_1", *first.Order.ProviderReference)
	require.NotNil(t, first.DeployRequest)
	assert.Equal(t, models.DeployNew, first.DeployRequest.Status)

	second, err := h.fulfillment.ConfirmOrderPayment(ctx, ConfirmPaymentInput{OrderID: o.ID, Source: SourceStatusCheck})
	require.NoError(t, err)
	assert.False(t, second.Transitioned)
	assert.Equal(t, first.License.LicenseKey, second.License.LicenseKey)
	assert.Equal(t, first.DeployRequest.ID, second.DeployRequest.ID)

	assert.Equal(t, 1, h.store.Orders.LicenseCount(o.ID))
	assert.Equal(t, 1, h.store.Orders.DeployRequestCount(o.ID))
	assert.Equal(t, 1, h.events.orderUpdates())
	// receipt + deploy to buyer, purchase + deploy to admin, nothing on replay
	assert.Len(t, h.mailer.to("buyer@example.com"), 2)
	assert.Len(t, h.mailer.to("admin@studio.example"), 2)
}

func TestConfirmOrderPaymentConcurrentCallsFulfilOnce(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDeploy, "")

	var wg sync.WaitGroup
	var mu sync.Mutex
	transitions := 0
	keys := map[string]bool{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := h.fulfillment.ConfirmOrderPayment(context.Background(), ConfirmPaymentInput{OrderID: o.ID, Source: SourceWebhook})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			keys[out.License.LicenseKey] = true
			if out.Transitioned {
				transitions++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, transitions)
	assert.Len(t, keys, 1)
	assert.Equal(t, 1, h.store.Orders.DeployRequestCount(o.ID))
}

func TestConfirmOrderPaymentWithoutBuyerEmailOnlyNotifiesAdmin(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "")

	out, err := h.fulfillment.ConfirmOrderPayment(context.Background(), ConfirmPaymentInput{OrderID: o.ID, Source: SourceAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, out.Order.Status)
	assert.Nil(t, out.DeployRequest)

	msgs := h.mailer.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"admin@studio.example"}, msgs[0].To)
}

func TestConfirmOrderPaymentMailFailureDoesNotRollBack(t *testing.T) {
	h := newHarness(t)
	h.mailer.err = assert.AnError
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "buyer@example.com")

	out, err := h.fulfillment.ConfirmOrderPayment(context.Background(), ConfirmPaymentInput{OrderID: o.ID, Source: SourceWebhook})
	require.NoError(t, err)
	assert.True(t, out.Transitioned)

	stored, err := h.store.Orders.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, stored.Status)
}

func TestConfirmOrderPaymentErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.fulfillment.ConfirmOrderPayment(ctx, ConfirmPaymentInput{OrderID: 999, Source: SourceWebhook})
	assert.ErrorIs(t, err, utils.ErrOrderNotFound)

	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "")
	_, err = h.fulfillment.ConfirmOrderPayment(ctx, ConfirmPaymentInput{OrderID: o.ID, Source: SourceAdmin, Status: models.OrderFailed})
	assert.ErrorIs(t, err, utils.ErrInvalidStatusTransition)

	missing := int64(12345)
	_, err = h.fulfillment.ConfirmOrderPayment(ctx, ConfirmPaymentInput{OrderID: o.ID, Source: SourceAdmin, ConfirmationID: &missing})
	assert.ErrorIs(t, err, utils.ErrConfirmationAlreadyReviewed)
}

func TestFailOrderOnlyFromPending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "")

	changed, err := h.fulfillment.FailOrder(ctx, o.ID, SourceWebhook)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = h.fulfillment.FailOrder(ctx, o.ID, SourceWebhook)
	require.NoError(t, err)
	assert.False(t, changed)

	settled := h.order(t, p, models.DeliveryDownload, "")
	_, err = h.fulfillment.ConfirmOrderPayment(ctx, ConfirmPaymentInput{OrderID: settled.ID, Source: SourceWebhook})
	require.NoError(t, err)
	changed, err = h.fulfillment.FailOrder(ctx, settled.ID, SourceWebhook)
	require.NoError(t, err)
	assert.False(t, changed)
}
