package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/service"
	"github.com/GTDGit/storefront_api/internal/utils"
)

// FormHandler handles the public lead forms. Responses use the flat
// {success, error} body the marketing site expects.
type FormHandler struct {
	leads *service.LeadService
}

// NewFormHandler constructs a FormHandler.
func NewFormHandler(leads *service.LeadService) *FormHandler {
	return &FormHandler{leads: leads}
}

// Contact handles POST /api/forms/contact
func (h *FormHandler) Contact(c *gin.Context) {
	var req service.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FormError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}
	h.respond(c, h.leads.SubmitContact(c.Request.Context(), &req))
}

// RequestSystem handles POST /api/forms/request-system
func (h *FormHandler) RequestSystem(c *gin.Context) {
	var req service.SystemRequestForm
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.FormError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}
	h.respond(c, h.leads.SubmitSystemRequest(c.Request.Context(), &req))
}

func (h *FormHandler) respond(c *gin.Context, err error) {
	switch {
	case err == nil:
		utils.FormSuccess(c)
	case errors.Is(err, utils.ErrInvalidInput):
		utils.FormError(c, http.StatusBadRequest, "Please provide an email address or phone number")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Form submission failed")
		utils.FormError(c, http.StatusInternalServerError, "Something went wrong, please try again")
	}
}
