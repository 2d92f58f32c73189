package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/storefront_api/internal/utils"
)

func successOK(c *gin.Context, message string, data any) {
	utils.Success(c, http.StatusOK, message, data)
}

func successPage(c *gin.Context, message string, data any, page, limit, total int) {
	utils.SuccessWithPagination(c, http.StatusOK, message, data, page, limit, total)
}
