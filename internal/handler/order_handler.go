package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/storefront_api/internal/service"
)

// OrderHandler serves the buyer's order page, receipt and download.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// GetOrder handles GET /v1/store/orders/:token
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	successOK(c, "Order retrieved", order)
}

// Receipt handles GET /v1/store/orders/:token/receipt.pdf
func (h *OrderHandler) Receipt(c *gin.Context) {
	pdf, filename, err := h.orders.Receipt(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Download handles GET /v1/store/orders/:token/download by redirecting to
// a short-lived object storage link.
func (h *OrderHandler) Download(c *gin.Context) {
	url, err := h.orders.DownloadURL(c.Request.Context(), c.Param("token"))
	if err != nil {
		handleError(c, err)
		return
	}
	if c.Query("redirect") == "false" {
		successOK(c, "Download link created", gin.H{"url": url})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, url)
}
