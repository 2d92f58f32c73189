package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/utils"
)

func newReviewService(h *harness) *ConfirmationReviewService {
	return NewConfirmationReviewService(h.store.Confirmations, h.store.Orders, h.store.Products, h.settings, h.storage, h.fulfillment, h.events)
}

func newAdminOrderService(h *harness) *AdminOrderService {
	return NewAdminOrderService(h.store.Orders, h.store.Products, h.store.Licenses, h.store.DeployRequests, h.store.Confirmations, h.fulfillment, h.events)
}

func submitClaim(t *testing.T, h *harness, o *models.Order, amount int64) int64 {
	t.Helper()
	res, err := newPaymentService(h, false).SubmitConfirmation(context.Background(), o.AccessToken, momoClaim(amount), nil)
	require.NoError(t, err)
	return res.ConfirmationID
}

func TestApproveConfirmationSettlesOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, models.Product{PriceCents: 1000, DeployPriceCents: 500})
	o := h.order(t, p, models.DeliveryDeploy, "")
	id := submitClaim(t, h, o, 100)
	svc := newReviewService(h)

	detail, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, detail.AmountWarning)
	assert.Equal(t, int64(2_250_000), detail.ExpectedAmountCents)

	// a mismatch warns but does not block approval
	out, err := svc.Approve(ctx, 3, id, &ReviewRequest{Note: strPtr("checked statement")})
	require.NoError(t, err)
	assert.True(t, out.Transitioned)
	assert.Equal(t, models.OrderConfirmed, out.Order.Status)
	require.NotNil(t, out.DeployRequest)

	pc, err := h.store.Confirmations.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewApproved, pc.ReviewStatus)
	require.NotNil(t, pc.ReviewedBy)
	assert.Equal(t, int64(3), *pc.ReviewedBy)
	assert.False(t, pc.AutoApproved)

	_, err = svc.Approve(ctx, 3, id, &ReviewRequest{})
	assert.ErrorIs(t, err, utils.ErrConfirmationAlreadyReviewed)
	_, err = svc.Reject(ctx, 3, id, &RejectRequest{})
	assert.ErrorIs(t, err, utils.ErrConfirmationAlreadyReviewed)
	_, err = svc.Approve(ctx, 3, 999, &ReviewRequest{})
	assert.ErrorIs(t, err, utils.ErrConfirmationNotFound)
}

func TestRejectConfirmationOptionallyFailsOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, models.Product{PriceCents: 1000})
	svc := newReviewService(h)

	keep := h.order(t, p, models.DeliveryDownload, "")
	res, err := svc.Reject(ctx, 1, submitClaim(t, h, keep, 1_500_000), &RejectRequest{Reason: strPtr("not found on statement")})
	require.NoError(t, err)
	assert.False(t, res.OrderFailed)
	assert.Equal(t, models.ReviewRejected, res.Confirmation.ReviewStatus)
	stored, err := h.store.Orders.GetByID(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, stored.Status)

	// the buyer may submit again after a rejection
	submitClaim(t, h, keep, 1_500_000)

	fail := h.order(t, p, models.DeliveryDownload, "")
	res, err = svc.Reject(ctx, 1, submitClaim(t, h, fail, 1_500_000), &RejectRequest{MarkOrderFailed: true})
	require.NoError(t, err)
	assert.True(t, res.OrderFailed)
	stored, err = h.store.Orders.GetByID(ctx, fail.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderFailed, stored.Status)
}

func TestAdminOrderStatusChanges(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryDownload, "")
	svc := newAdminOrderService(h)

	detail, err := svc.Update(ctx, 1, o.ID, &UpdateOrderRequest{Status: strPtr("cancelled"), AdminNotes: strPtr("duplicate order")})
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, detail.Order.Status)
	require.NotNil(t, detail.Order.AdminNotes)
	assert.Equal(t, "duplicate order", *detail.Order.AdminNotes)

	detail, err = svc.Update(ctx, 1, o.ID, &UpdateOrderRequest{Status: strPtr("pending")})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, detail.Order.Status)

	detail, err = svc.Update(ctx, 1, o.ID, &UpdateOrderRequest{Status: strPtr("paid")})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, detail.Order.Status)
	require.NotNil(t, detail.License)

	// a settled order cannot be moved between settled statuses
	_, err = svc.Update(ctx, 1, o.ID, &UpdateOrderRequest{Status: strPtr("confirmed")})
	assert.ErrorIs(t, err, utils.ErrInvalidStatusTransition)
	stored, err := h.store.Orders.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, stored.Status)
	assert.Equal(t, 1, h.store.Orders.LicenseCount(o.ID))

	// repeating the current status is a no-op
	detail, err = svc.Update(ctx, 1, o.ID, &UpdateOrderRequest{Status: strPtr("paid")})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, detail.Order.Status)

	_, err = svc.Update(ctx, 1, o.ID, &UpdateOrderRequest{Status: strPtr("failed")})
	assert.ErrorIs(t, err, utils.ErrInvalidStatusTransition)
	_, err = svc.Update(ctx, 1, o.ID, &UpdateOrderRequest{Status: strPtr("pending")})
	assert.ErrorIs(t, err, utils.ErrInvalidStatusTransition)

	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, utils.ErrOrderNotFound)

	list, total, err := svc.List(ctx, repository.OrderFilter{Search: o.ReferenceCode})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "School System", list[0].ProductName)
}

func TestDeployRequestUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := h.product(t, models.Product{PriceCents: 1000})
	o := h.order(t, p, models.DeliveryBoth, "buyer@example.com")
	out, err := h.fulfillment.ConfirmOrderPayment(ctx, ConfirmPaymentInput{OrderID: o.ID, Source: SourceWebhook})
	require.NoError(t, err)
	svc := NewDeployRequestService(h.store.DeployRequests)

	v, err := svc.Update(ctx, out.DeployRequest.ID, &UpdateDeployRequest{Status: "in_progress", Notes: strPtr("server booked")})
	require.NoError(t, err)
	assert.Equal(t, models.DeployInProgress, v.Status)
	assert.Equal(t, o.ReferenceCode, v.ReferenceCode)
	require.NotNil(t, v.BuyerEmail)
	assert.Equal(t, "buyer@example.com", *v.BuyerEmail)

	_, err = svc.Update(ctx, out.DeployRequest.ID, &UpdateDeployRequest{Status: "shipped"})
	assert.ErrorIs(t, err, utils.ErrInvalidInput)
	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, utils.ErrDeployRequestNotFound)
}
