package service

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/utils"
)

const testWebhookSecret = "whsec_test"

func newWebhookService(h *harness, now time.Time) *WebhookService {
	svc := NewWebhookService(h.store.WebhookEvents, h.store.Orders, h.fulfillment, testWebhookSecret, 5*time.Minute, nil)
	svc.now = func() time.Time { return now }
	return svc
}

func signedHeaders(body []byte, ts time.Time, event string) WebhookHeaders {
	stamp := strconv.FormatInt(ts.Unix(), 10)
	return WebhookHeaders{
		Signature: "sha256=" + utils.GenerateSignature([]byte(stamp+"."+string(body)), testWebhookSecret),
		Timestamp: stamp,
		Event:     event,
	}
}

func paymentBody(eventID, event string, orderID int64, ref string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"event":%q,"data":{"payment":{"id":"pay_9","status":"confirmed","amount":1000,"currency":"USD","reference_code":%q,"metadata":{"order_id":"%d"}}}}`,
		eventID, event, ref, orderID,
	))
}

func TestWebhookConfirmsOrderOnce(t *testing.T) {
	h := newHarness(t)
	now := time.Unix(1_790_000_000, 0)
	svc := newWebhookService(h, now)
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "")
	ctx := context.Background()

	body := paymentBody("evt_1", "payment.confirmed", o.ID, o.ReferenceCode)
	res, err := svc.Handle(ctx, body, signedHeaders(body, now, ""))
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, res.Outcome)
	assert.Equal(t, "payment.confirmed", res.Event)

	stored, err := h.store.Orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, stored.Status)
	require.NotNil(t, stored.ProviderReference)
	assert.Equal(t, "pay_9", *stored.ProviderReference)

	res, err = svc.Handle(ctx, body, signedHeaders(body, now, ""))
	require.NoError(t, err)
	assert.Equal(t, WebhookDuplicate, res.Outcome)
	assert.Equal(t, 1, h.store.WebhookEvents.Count())
	assert.Equal(t, 1, h.store.Orders.LicenseCount(o.ID))
}

func TestWebhookRejectsBadSignatures(t *testing.T) {
	h := newHarness(t)
	now := time.Unix(1_790_000_000, 0)
	svc := newWebhookService(h, now)
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "")
	body := paymentBody("evt_1", "payment.confirmed", o.ID, o.ReferenceCode)

	tests := []struct {
		name    string
		headers WebhookHeaders
		want    error
	}{
		{name: "missing", headers: WebhookHeaders{}, want: utils.ErrInvalidSignature},
		{name: "wrong secret", headers: WebhookHeaders{Signature: utils.GenerateSignature(body, "other"), Timestamp: "1790000000"}, want: utils.ErrInvalidSignature},
		{name: "stale", headers: signedHeaders(body, now.Add(-10*time.Minute), ""), want: utils.ErrStaleWebhook},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Handle(context.Background(), body, tt.headers)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	stored, err := h.store.Orders.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, stored.Status)
	assert.Equal(t, 0, h.store.WebhookEvents.Count())
}

func TestWebhookFailedAndUnknownEvents(t *testing.T) {
	h := newHarness(t)
	now := time.Unix(1_790_000_000, 0)
	svc := newWebhookService(h, now)
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "")
	ctx := context.Background()

	// event name from header wins, order resolved by reference code
	body := paymentBody("evt_2", "", 0, o.ReferenceCode)
	res, err := svc.Handle(ctx, body, signedHeaders(body, now, "payment.failed"))
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, res.Outcome)
	stored, err := h.store.Orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderFailed, stored.Status)

	body = paymentBody("evt_3", "payment.refunded", o.ID, o.ReferenceCode)
	res, err = svc.Handle(ctx, body, signedHeaders(body, now, ""))
	require.NoError(t, err)
	assert.Equal(t, WebhookIgnored, res.Outcome)

	body = paymentBody("evt_4", "payment.confirmed", 9999, "NOPE0000")
	res, err = svc.Handle(ctx, body, signedHeaders(body, now, ""))
	require.NoError(t, err)
	assert.Equal(t, WebhookIgnored, res.Outcome)
}

func TestWebhookProcessingErrorIsRetried(t *testing.T) {
	h := newHarness(t)
	now := time.Unix(1_790_000_000, 0)
	svc := newWebhookService(h, now)
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "")
	ctx := context.Background()
	body := paymentBody("evt_5", "payment.confirmed", o.ID, o.ReferenceCode)

	h.store.Orders.ConfirmErr = assert.AnError
	_, err := svc.Handle(ctx, body, signedHeaders(body, now, ""))
	require.Error(t, err)

	h.store.Orders.ConfirmErr = nil
	res, err := svc.Handle(ctx, body, signedHeaders(body, now, ""))
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, res.Outcome)
	assert.Equal(t, 1, h.store.WebhookEvents.Count())
}

func TestWebhookWithoutSecretSkipsVerification(t *testing.T) {
	h := newHarness(t)
	svc := NewWebhookService(h.store.WebhookEvents, h.store.Orders, h.fulfillment, "", 0, nil)
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "")

	body := paymentBody("evt_6", "payment.confirmed", o.ID, o.ReferenceCode)
	res, err := svc.Handle(context.Background(), body, WebhookHeaders{})
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, res.Outcome)
	assert.Equal(t, 1, h.store.WebhookEvents.Count())
}

func TestWebhookVerifyRejectsSingleByteMutations(t *testing.T) {
	h := newHarness(t)
	now := time.Unix(1_790_000_000, 0)
	svc := newWebhookService(h, now)
	body := paymentBody("evt_1", "payment.confirmed", 7, "REF7")
	headers := signedHeaders(body, now, "payment.confirmed")
	require.NoError(t, svc.Verify(body, headers))

	flip := func(s string, i int, mask byte) string {
		b := []byte(s)
		b[i] ^= mask
		return string(b)
	}

	for _, mask := range []byte{0x01, 0x20} {
		for i := range body {
			mutated := append([]byte(nil), body...)
			mutated[i] ^= mask
			assert.Error(t, svc.Verify(mutated, headers), "body byte %d mask %#x", i, mask)
		}
		for i := range headers.Timestamp {
			hh := headers
			hh.Timestamp = flip(headers.Timestamp, i, mask)
			assert.Error(t, svc.Verify(body, hh), "timestamp byte %d mask %#x", i, mask)
		}
		for i := range headers.Signature {
			hh := headers
			hh.Signature = flip(headers.Signature, i, mask)
			assert.ErrorIs(t, svc.Verify(body, hh), utils.ErrInvalidSignature, "signature byte %d mask %#x", i, mask)
		}
	}
}
