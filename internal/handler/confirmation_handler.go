package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/storefront_api/internal/middleware"
	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/service"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// ConfirmationHandler is the admin review queue for manual payments.
type ConfirmationHandler struct {
	reviews *service.ConfirmationReviewService
}

// NewConfirmationHandler constructs a ConfirmationHandler.
func NewConfirmationHandler(reviews *service.ConfirmationReviewService) *ConfirmationHandler {
	return &ConfirmationHandler{reviews: reviews}
}

// ListConfirmations handles GET /v1/admin/payment-confirmations
func (h *ConfirmationHandler) ListConfirmations(c *gin.Context) {
	page, limit := utils.ParsePaging(c)
	filter := repository.ConfirmationFilter{
		ReviewStatus: models.ReviewStatus(c.Query("reviewStatus")),
		Page:         page,
		Limit:        limit,
	}

	list, total, err := h.reviews.List(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}
	successPage(c, "Payment confirmations retrieved", list, page, limit, total)
}

// GetConfirmation handles GET /v1/admin/payment-confirmations/:id
func (h *ConfirmationHandler) GetConfirmation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	detail, err := h.reviews.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "Payment confirmation retrieved", detail)
}

// Approve handles POST /v1/admin/payment-confirmations/:id/approve
func (h *ConfirmationHandler) Approve(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.ReviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidRequest(c, err)
			return
		}
	}

	outcome, err := h.reviews.Approve(c.Request.Context(), middleware.GetUserID(c), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "Payment approved", outcome)
}

// Reject handles POST /v1/admin/payment-confirmations/:id/reject
func (h *ConfirmationHandler) Reject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.RejectRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidRequest(c, err)
			return
		}
	}

	result, err := h.reviews.Reject(c.Request.Context(), middleware.GetUserID(c), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "Payment confirmation rejected", gin.H{
		"confirmation": result.Confirmation,
		"orderFailed":  result.OrderFailed,
	})
}

// ReceiptURL handles GET /v1/admin/payment-confirmations/:id/receipt
func (h *ConfirmationHandler) ReceiptURL(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	url, err := h.reviews.ReceiptURL(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "Receipt link created", gin.H{"url": url})
}
