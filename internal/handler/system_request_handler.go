package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/service"
	"github.com/GTDGit/storefront_api/internal/utils"
)

type SystemRequestHandler struct {
	leads *service.LeadService
}

func NewSystemRequestHandler(leads *service.LeadService) *SystemRequestHandler {
	return &SystemRequestHandler{leads: leads}
}

// ListSystemRequests handles GET /v1/admin/system-requests
func (h *SystemRequestHandler) ListSystemRequests(c *gin.Context) {
	page, limit := utils.ParsePaging(c)
	list, total, err := h.leads.List(c.Request.Context(), repository.SystemRequestFilter{
		Status: models.LeadStatus(c.Query("status")),
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	successPage(c, "System requests retrieved", list, page, limit, total)
}

// GetSystemRequest handles GET /v1/admin/system-requests/:id
func (h *SystemRequestHandler) GetSystemRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sr, err := h.leads.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "System request retrieved", sr)
}

// UpdateSystemRequest handles PATCH /v1/admin/system-requests/:id
func (h *SystemRequestHandler) UpdateSystemRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateSystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	sr, err := h.leads.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "System request updated", sr)
}
