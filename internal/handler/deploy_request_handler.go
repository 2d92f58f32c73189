package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/storefront_api/internal/models"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/service"
	"github.com/GTDGit/storefront_api/internal/utils"
)

type DeployRequestHandler struct {
	deploys *service.DeployRequestService
}

func NewDeployRequestHandler(deploys *service.DeployRequestService) *DeployRequestHandler {
	return &DeployRequestHandler{deploys: deploys}
}

// ListDeployRequests handles GET /v1/admin/deploy-requests
func (h *DeployRequestHandler) ListDeployRequests(c *gin.Context) {
	page, limit := utils.ParsePaging(c)
	list, total, err := h.deploys.List(c.Request.Context(), repository.DeployRequestFilter{
		Status: models.DeployStatus(c.Query("status")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	successPage(c, "Deploy requests retrieved", list, page, limit, total)
}

// GetDeployRequest handles GET /v1/admin/deploy-requests/:id
func (h *DeployRequestHandler) GetDeployRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	dr, err := h.deploys.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "Deploy request retrieved", dr)
}

// UpdateDeployRequest handles PATCH /v1/admin/deploy-requests/:id
func (h *DeployRequestHandler) UpdateDeployRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateDeployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	dr, err := h.deploys.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "Deploy request updated", dr)
}
