package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/utils"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newPaymentService(h *harness, autoApprove bool) *PaymentService {
	return NewPaymentService(
		h.store.Orders, h.store.Products, h.store.Confirmations, h.settings, h.storage,
		h.fulfillment, h.notify, h.events, nil,
		PaymentServiceConfig{AutoApprove: autoApprove, MaxReceiptBytes: 1024},
	)
}

func momoClaim(amount int64) *ConfirmationRequest {
	return &ConfirmationRequest{
		Method:               "momo",
		PayerPhone:           strPtr("+211911111111"),
		TransactionReference: "MP240101.1234",
		Amount:               amount,
		Currency:             "SSP",
	}
}

func TestInstructionsConvertAmounts(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "")
	svc := newPaymentService(h, false)

	ins, err := svc.Instructions(context.Background(), o.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), ins.ExpectedAmounts[models.CurrencyUSD])
	assert.Equal(t, int64(1_500_000), ins.ExpectedAmounts[models.CurrencySSP])
	require.Len(t, ins.Rails, 2)
	assert.Equal(t, []string{models.CurrencySSP}, ins.Rails[0].Currencies)
	assert.Equal(t, "+211920000000", ins.Rails[0].Accounts[models.CurrencySSP])
	assert.Nil(t, ins.PendingConfirmation)

	_, err = svc.Instructions(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, utils.ErrOrderNotFound)
}

func TestSubmitConfirmationStoresReceipt(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "")
	svc := newPaymentService(h, false)

	res, err := svc.SubmitConfirmation(context.Background(), o.AccessToken, momoClaim(1_500_000), &Upload{Filename: "x.txt", Data: pngHeader})
	require.NoError(t, err)
	assert.True(t, res.AmountMatches)
	assert.Equal(t, models.ReviewPending, res.ReviewStatus)
	assert.False(t, res.AutoApproved)
	assert.Equal(t, models.OrderPending, res.OrderStatus)

	pc, err := h.store.Confirmations.GetByID(context.Background(), res.ConfirmationID)
	require.NoError(t, err)
	require.NotNil(t, pc.ReceiptPath)
	assert.True(t, strings.HasPrefix(*pc.ReceiptPath, "receipts/"+o.ReferenceCode+"/"))
	assert.True(t, strings.HasSuffix(*pc.ReceiptPath, ".png"))
	assert.Equal(t, "image/png", h.storage.types[*pc.ReceiptPath])

	require.Len(t, h.events.confirmations, 1)
	admin := h.mailer.to("admin@studio.example")
	require.Len(t, admin, 1)
	assert.Contains(t, admin[0].Subject, "awaiting review")
}

func TestSubmitConfirmationMismatchIsFlaggedNotBlocked(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "")
	svc := newPaymentService(h, true)

	res, err := svc.SubmitConfirmation(context.Background(), o.AccessToken, momoClaim(900_000), nil)
	require.NoError(t, err)
	assert.False(t, res.AmountMatches)
	assert.Equal(t, int64(1_500_000), res.ExpectedAmountCents)
	// no auto-approval on mismatch
	assert.Equal(t, models.ReviewPending, res.ReviewStatus)
	assert.Equal(t, models.OrderPending, res.OrderStatus)
}

func TestSubmitConfirmationAutoApproves(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "buyer@example.com")
	svc := newPaymentService(h, true)

	res, err := svc.SubmitConfirmation(context.Background(), o.AccessToken, &ConfirmationRequest{
		Method:               "equity",
		TransactionReference: "FT123",
		Amount:               1000,
		Currency:             "usd",
	}, nil)
	require.NoError(t, err)
	assert.True(t, res.AutoApproved)
	assert.Equal(t, models.ReviewApproved, res.ReviewStatus)
	assert.Equal(t, models.OrderConfirmed, res.OrderStatus)

	pc, err := h.store.Confirmations.GetByID(context.Background(), res.ConfirmationID)
	require.NoError(t, err)
	assert.True(t, pc.AutoApproved)
	assert.Equal(t, models.ReviewApproved, pc.ReviewStatus)
	assert.Equal(t, 1, h.store.Orders.LicenseCount(o.ID))
	assert.Len(t, h.mailer.to("buyer@example.com"), 1)
}

func TestSubmitConfirmationRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, models.Product{PriceCents: 1000})
	svc := newPaymentService(h, false)

	t.Run("momo in USD", func(t *testing.T) {
		o := h.order(t, p, models.DeliveryDownload, "")
		claim := momoClaim(1000)
		claim.Currency = "USD"
		_, err := svc.SubmitConfirmation(ctx, o.AccessToken, claim, nil)
		assert.ErrorIs(t, err, utils.ErrInvalidPaymentMethod)
	})

	t.Run("second pending claim", func(t *testing.T) {
		o := h.order(t, p, models.DeliveryDownload, "")
		_, err := svc.SubmitConfirmation(ctx, o.AccessToken, momoClaim(1_500_000), nil)
		require.NoError(t, err)
		_, err = svc.SubmitConfirmation(ctx, o.AccessToken, momoClaim(1_500_000), nil)
		assert.ErrorIs(t, err, utils.ErrConfirmationPending)
	})

	t.Run("settled order", func(t *testing.T) {
		o := h.order(t, p, models.DeliveryDownload, "")
		_, err := h.fulfillment.ConfirmOrderPayment(ctx, ConfirmPaymentInput{OrderID: o.ID, Source: SourceWebhook})
		require.NoError(t, err)
		_, err = svc.SubmitConfirmation(ctx, o.AccessToken, momoClaim(1_500_000), nil)
		assert.ErrorIs(t, err, utils.ErrOrderAlreadyPaid)
	})

	t.Run("receipt type", func(t *testing.T) {
		o := h.order(t, p, models.DeliveryDownload, "")
		_, err := svc.SubmitConfirmation(ctx, o.AccessToken, momoClaim(1_500_000), &Upload{Filename: "r.png", Data: []byte("plain text pretending")})
		assert.ErrorIs(t, err, utils.ErrInvalidReceipt)
	})

	t.Run("receipt size", func(t *testing.T) {
		o := h.order(t, p, models.DeliveryDownload, "")
		big := append(append([]byte{}, pngHeader...), make([]byte, 2048)...)
		_, err := svc.SubmitConfirmation(ctx, o.AccessToken, momoClaim(1_500_000), &Upload{Filename: "r.png", Data: big})
		assert.ErrorIs(t, err, utils.ErrReceiptTooLarge)
	})
}

// racingConfirmations lets a competing claim land between the pending check
// and the insert.
type racingConfirmations struct {
	ConfirmationStore
	rival *models.PaymentConfirmation
}

func (r *racingConfirmations) Create(ctx context.Context, pc *models.PaymentConfirmation) error {
	if r.rival != nil {
		rival := r.rival
		r.rival = nil
		if err := r.ConfirmationStore.Create(ctx, rival); err != nil {
			return err
		}
	}
	return r.ConfirmationStore.Create(ctx, pc)
}

func TestSubmitConfirmationRemovesReceiptWhenClaimLosesRace(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "")
	confirmations := &racingConfirmations{
		ConfirmationStore: h.store.Confirmations,
		rival: &models.PaymentConfirmation{
			OrderID:              o.ID,
			Method:               models.MethodEquity,
			TransactionReference: "EQ-1",
			AmountCents:          1000,
			Currency:             models.CurrencyUSD,
		},
	}
	svc := NewPaymentService(
		h.store.Orders, h.store.Products, confirmations, h.settings, h.storage,
		h.fulfillment, h.notify, h.events, nil,
		PaymentServiceConfig{MaxReceiptBytes: 1024},
	)

	_, err := svc.SubmitConfirmation(context.Background(), o.AccessToken, momoClaim(1_500_000), &Upload{Filename: "r.png", Data: pngHeader})
	assert.ErrorIs(t, err, utils.ErrConfirmationPending)
	assert.Empty(t, h.storage.objects)

	list, err := h.store.Confirmations.ListByOrder(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "EQ-1", list[0].TransactionReference)
}
