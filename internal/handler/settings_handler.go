package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/storefront_api/internal/middleware"
	"github.com/GTDGit/storefront_api/internal/service"
)

type SettingsHandler struct {
	settings *service.SettingsService
}

func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// GetSettings handles GET /v1/admin/settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	current, err := h.settings.Current(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "Settings retrieved", current)
}

// UpdateSettings handles PUT /v1/admin/settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req service.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	saved, err := h.settings.Update(c.Request.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	successOK(c, "Settings saved", saved)
}
