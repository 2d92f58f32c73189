package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/utils"
)

// apiError maps a service sentinel to its HTTP status and client message.
type apiError struct {
	status  int
	message string
}

var apiErrors = map[error]apiError{
	utils.ErrInvalidInput:                {400, "Invalid request"},
	utils.ErrInvalidPricing:              {400, "Prices must not be negative"},
	utils.ErrInvalidPaymentMethod:        {400, "Payment method does not accept this currency"},
	utils.ErrInvalidReceipt:              {400, "Receipt must be a JPEG, PNG, WebP, GIF or PDF file"},
	utils.ErrInvalidCredentials:          {401, "Invalid email or password"},
	utils.ErrInvalidSignature:            {401, "Invalid signature"},
	utils.ErrStaleWebhook:                {401, "Webhook timestamp outside tolerance"},
	utils.ErrAccountDisabled:             {403, "Account is disabled"},
	utils.ErrProductNotFound:             {404, "Product not found"},
	utils.ErrOrderNotFound:               {404, "Order not found"},
	utils.ErrConfirmationNotFound:        {404, "Payment confirmation not found"},
	utils.ErrDeployRequestNotFound:       {404, "Deploy request not found"},
	utils.ErrSystemRequestNotFound:       {404, "System request not found"},
	utils.ErrDeliverableUnavailable:      {404, "No download is available for this order"},
	utils.ErrProductUnavailable:          {409, "Product is not available for purchase"},
	utils.ErrSlugTaken:                   {409, "Slug is already used by another product"},
	utils.ErrProductInUse:                {409, "Product has orders and cannot be deleted"},
	utils.ErrOrderAlreadyPaid:            {409, "Order is already paid"},
	utils.ErrOrderNotSettled:             {409, "Order is not paid yet"},
	utils.ErrInvalidStatusTransition:     {409, "Order status cannot change this way"},
	utils.ErrConfirmationPending:         {409, "A payment confirmation is already awaiting review"},
	utils.ErrConfirmationAlreadyReviewed: {409, "Payment confirmation was already reviewed"},
	utils.ErrSettingsVersionConflict:     {409, "Settings were changed by someone else, reload and retry"},
	utils.ErrReceiptTooLarge:             {413, "Receipt file is too large"},
	utils.ErrStorageUnavailable:          {503, "File storage is not configured"},
}

// handleError writes the envelope for err. Unknown errors are logged and
// reported as 500 without detail.
func handleError(c *gin.Context, err error) {
	for sentinel, e := range apiErrors {
		if errors.Is(err, sentinel) {
			message := e.message
			// Input errors carry the offending field after the sentinel.
			if sentinel == utils.ErrInvalidInput {
				prefix := sentinel.Error() + ": "
				if i := strings.Index(err.Error(), prefix); i >= 0 {
					message = err.Error()[i+len(prefix):]
				}
			}
			utils.Error(c, e.status, sentinel.Error(), message)
			return
		}
	}
	log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	_ = c.Error(err)
	utils.Error(c, 500, "INTERNAL_ERROR", "Internal server error")
}

// bindingMessage turns validator errors into "field: rule" pairs.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := strings.TrimPrefix(fe.Tag(), "blank|")
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s: %s", lowerFirst(fe.Field()), rule))
	}
	return strings.Join(parts, ", ")
}

func invalidRequest(c *gin.Context, err error) {
	utils.Error(c, 400, "INVALID_REQUEST", bindingMessage(err))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// paramID parses a positive int64 path parameter, writing a 400 on failure.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.Error(c, 400, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return id, true
}
