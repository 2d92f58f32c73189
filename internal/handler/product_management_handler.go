package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/service"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// Upload size limits for admin files.
const (
	maxImageBytes       = 10 << 20
	maxDeliverableBytes = 200 << 20
)

// ProductManagementHandler handles product CRUD HTTP endpoints.
type ProductManagementHandler struct {
	productMgmtService *service.ProductManagementService
}

// NewProductManagementHandler constructs a ProductManagementHandler.
func NewProductManagementHandler(productMgmtService *service.ProductManagementService) *ProductManagementHandler {
	return &ProductManagementHandler{productMgmtService: productMgmtService}
}

// ListProducts handles GET /v1/admin/products
func (h *ProductManagementHandler) ListProducts(c *gin.Context) {
	page, limit := utils.ParsePaging(c)
	filter := repository.ProductFilter{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}
	if v := c.Query("isPublished"); v != "" {
		if published, err := strconv.ParseBool(v); err == nil {
			filter.Published = &published
		}
	}

	products, total, err := h.productMgmtService.List(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}
	successPage(c, "Products retrieved", products, page, limit, total)
}

// CreateProduct handles POST /v1/admin/products
func (h *ProductManagementHandler) CreateProduct(c *gin.Context) {
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	product, err := h.productMgmtService.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	utils.Success(c, http.StatusCreated, "Product created successfully", product)
}

// GetProduct handles GET /v1/admin/products/:id
func (h *ProductManagementHandler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	product, err := h.productMgmtService.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "Product retrieved", product)
}

// UpdateProduct handles PUT /v1/admin/products/:id
func (h *ProductManagementHandler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	product, err := h.productMgmtService.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "Product updated successfully", product)
}

// DeleteProduct handles DELETE /v1/admin/products/:id
func (h *ProductManagementHandler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.productMgmtService.Delete(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "Product deleted successfully", nil)
}

// UploadThumbnail handles POST /v1/admin/products/:id/thumbnail
func (h *ProductManagementHandler) UploadThumbnail(c *gin.Context) {
	h.upload(c, maxImageBytes, h.productMgmtService.UploadThumbnail)
}

// UploadScreenshot handles POST /v1/admin/products/:id/screenshots
func (h *ProductManagementHandler) UploadScreenshot(c *gin.Context) {
	h.upload(c, maxImageBytes, h.productMgmtService.UploadScreenshot)
}

// UploadDeliverable handles POST /v1/admin/products/:id/deliverable
func (h *ProductManagementHandler) UploadDeliverable(c *gin.Context) {
	h.upload(c, maxDeliverableBytes, h.productMgmtService.UploadDeliverable)
}

type uploadFunc func(ctx context.Context, id int64, file *service.Upload) (*models.Product, error)

func (h *ProductManagementHandler) upload(c *gin.Context, limit int64, store uploadFunc) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	tooLarge := fmt.Errorf("%w: file exceeds %d MB", utils.ErrInvalidInput, limit>>20)
	file, err := readUpload(c, "file", limit, tooLarge)
	if err != nil {
		handleError(c, err)
		return
	}
	if file == nil {
		utils.Error(c, 400, "INVALID_REQUEST", "file: required")
		return
	}

	product, err := store(c.Request.Context(), id, file)
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "File uploaded", product)
}
