package utils

import "errors"

// Common application errors used across services.
var (
	ErrInvalidToken                = errors.New("INVALID_TOKEN")
	ErrInvalidCredentials          = errors.New("INVALID_CREDENTIALS")
	ErrAccountDisabled             = errors.New("ACCOUNT_DISABLED")
	ErrInvalidInput                = errors.New("INVALID_INPUT")
	ErrInvalidPricing              = errors.New("INVALID_PRICING")
	ErrProductNotFound             = errors.New("PRODUCT_NOT_FOUND")
	ErrProductUnavailable          = errors.New("PRODUCT_UNAVAILABLE")
	ErrSlugTaken                   = errors.New("SLUG_TAKEN")
	ErrProductInUse                = errors.New("PRODUCT_IN_USE")
	ErrOrderNotFound               = errors.New("ORDER_NOT_FOUND")
	ErrOrderAlreadyPaid            = errors.New("ORDER_ALREADY_PAID")
	ErrOrderNotSettled             = errors.New("ORDER_NOT_SETTLED")
	ErrInvalidStatusTransition     = errors.New("INVALID_STATUS_TRANSITION")
	ErrInvalidPaymentMethod        = errors.New("INVALID_PAYMENT_METHOD")
	ErrConfirmationPending         = errors.New("CONFIRMATION_PENDING")
	ErrConfirmationNotFound        = errors.New("CONFIRMATION_NOT_FOUND")
	ErrConfirmationAlreadyReviewed = errors.New("CONFIRMATION_ALREADY_REVIEWED")
	ErrInvalidReceipt              = errors.New("INVALID_RECEIPT")
	ErrReceiptTooLarge             = errors.New("RECEIPT_TOO_LARGE")
	ErrDeliverableUnavailable      = errors.New("DELIVERABLE_UNAVAILABLE")
	ErrDeployRequestNotFound       = errors.New("DEPLOY_REQUEST_NOT_FOUND")
	ErrSystemRequestNotFound       = errors.New("SYSTEM_REQUEST_NOT_FOUND")
	ErrSettingsVersionConflict     = errors.New("SETTINGS_VERSION_CONFLICT")
	ErrInvalidSignature            = errors.New("INVALID_SIGNATURE")
	ErrStaleWebhook                = errors.New("STALE_WEBHOOK")
	ErrStorageUnavailable          = errors.New("STORAGE_UNAVAILABLE")
)
