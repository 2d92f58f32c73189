package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/storefront_api/internal/middleware"
	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/service"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// AdminOrderHandler handles admin order endpoints.
type AdminOrderHandler struct {
	orders *service.AdminOrderService
}

// NewAdminOrderHandler constructs an AdminOrderHandler.
func NewAdminOrderHandler(orders *service.AdminOrderService) *AdminOrderHandler {
	return &AdminOrderHandler{orders: orders}
}

// ListOrders handles GET /v1/admin/orders
func (h *AdminOrderHandler) ListOrders(c *gin.Context) {
	page, limit := utils.ParsePaging(c)
	filter := repository.OrderFilter{
		Status: models.OrderStatus(c.Query("status")),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}

	orders, total, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}
	successPage(c, "Orders retrieved", orders, page, limit, total)
}

// GetOrder handles GET /v1/admin/orders/:id
func (h *AdminOrderHandler) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	detail, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "Order retrieved", detail)
}

// UpdateOrder handles PATCH /v1/admin/orders/:id
func (h *AdminOrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	detail, err := h.orders.Update(c.Request.Context(), middleware.GetUserID(c), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "Order updated", detail)
}
