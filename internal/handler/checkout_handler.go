package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/storefront_api/internal/service"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// multipartOverhead is allowed on top of the receipt size for form fields.
const multipartOverhead = 64 << 10

// CheckoutHandler handles checkout and the manual payment page.
type CheckoutHandler struct {
	checkout        *service.CheckoutService
	payments        *service.PaymentService
	maxReceiptBytes int64
}

// NewCheckoutHandler constructs a CheckoutHandler.
func NewCheckoutHandler(checkout *service.CheckoutService, payments *service.PaymentService, maxReceiptBytes int64) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, payments: payments, maxReceiptBytes: maxReceiptBytes}
}

// Checkout handles POST /v1/store/checkout
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req service.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	result, err := h.checkout.Checkout(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Order created", result)
}

// PaymentInstructions handles GET /v1/store/pay/:token
func (h *CheckoutHandler) PaymentInstructions(c *gin.Context) {
	instructions, err := h.payments.Instructions(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "Payment instructions retrieved", instructions)
}

// SubmitConfirmation handles POST /v1/store/pay/:token/confirmations.
// Accepts multipart/form-data with an optional "receipt" file, or JSON.
func (h *CheckoutHandler) SubmitConfirmation(c *gin.Context) {
	var (
		req     service.ConfirmationRequest
		receipt *service.Upload
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxReceiptBytes+multipartOverhead)
		if err := c.ShouldBind(&req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				handleError(c, utils.ErrReceiptTooLarge)
				return
			}
			invalidRequest(c, err)
			return
		}
		upload, err := readUpload(c, "receipt", h.maxReceiptBytes, utils.ErrReceiptTooLarge)
		if err != nil {
			handleError(c, err)
			return
		}
		receipt = upload
	} else if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	result, err := h.payments.SubmitConfirmation(c.Request.Context(), c.Param("token"), &req, receipt)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Payment confirmation received", result)
}

// readUpload reads an optional multipart file. It returns nil when the field
// is absent and reads at most limit+1 bytes so oversize files are detectable.
func readUpload(c *gin.Context, field string, limit int64, tooLarge error) (*service.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, tooLarge
		}
		return nil, fmt.Errorf("%w: unreadable %s upload", utils.ErrInvalidInput, field)
	}
	if fh.Size > limit {
		return nil, tooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	return &service.Upload{Filename: fh.Filename, Data: data}, nil
}
