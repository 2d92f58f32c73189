package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GTDGit/storefront_api/internal/metrics"
	"github.com/GTDGit/storefront_api/internal/middleware"
)

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health            *HealthHandler
	Product           *ProductHandler
	Checkout          *CheckoutHandler
	Order             *OrderHandler
	SSE               *SSEHandler
	Webhook           *WebhookHandler
	Form              *FormHandler
	Auth              *AuthHandler
	ProductManagement *ProductManagementHandler
	AdminOrder        *AdminOrderHandler
	Confirmation      *ConfirmationHandler
	DeployRequest     *DeployRequestHandler
	SystemRequest     *SystemRequestHandler
	Settings          *SettingsHandler
}

// RouteMiddleware is the per-group middleware the routes need.
type RouteMiddleware struct {
	JWT       *middleware.JWTMiddleware
	StreamJWT *middleware.JWTMiddleware
	FormLimit middleware.Limiter
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer // nil serves the default registry
}

// RegisterRoutes registers all routes.
func RegisterRoutes(router *gin.Engine, h *Handlers, mw RouteMiddleware) {
	router.GET("/v1/health", h.Health.GetHealth)
	if mw.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(mw.Gatherer, promhttp.HandlerOpts{})))
	} else {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// Gateway webhook
	router.POST("/api/webhooks/payssd", h.Webhook.HandlePaySSD)
	router.GET("/api/webhooks/payssd", h.Webhook.Challenge)

	// Public lead forms (rate limited per IP)
	forms := router.Group("/api/forms")
	{
		forms.POST("/contact", middleware.RateLimitMiddleware(mw.FormLimit, "contact", mw.Metrics), h.Form.Contact)
		forms.POST("/request-system", middleware.RateLimitMiddleware(mw.FormLimit, "request-system", mw.Metrics), h.Form.RequestSystem)
	}

	// Storefront
	store := router.Group("/v1/store")
	{
		store.GET("/products", h.Product.ListProducts)
		store.GET("/products/:slug", h.Product.GetProduct)
		store.POST("/checkout", h.Checkout.Checkout)

		store.GET("/orders/:token", h.Order.GetOrder)
		store.GET("/orders/:token/events", h.SSE.OrderStream)
		store.GET("/orders/:token/receipt.pdf", h.Order.Receipt)
		store.GET("/orders/:token/download", h.Order.Download)

		store.GET("/pay/:token", h.Checkout.PaymentInstructions)
		store.POST("/pay/:token/confirmations", h.Checkout.SubmitConfirmation)
	}

	// Admin routes
	router.GET("/v1/admin/events", mw.StreamJWT.Handle(), h.SSE.AdminStream)

	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", h.Auth.Login)
	admin.Use(mw.JWT.Handle())
	{
		// Products
		admin.GET("/products", h.ProductManagement.ListProducts)
		admin.POST("/products", h.ProductManagement.CreateProduct)
		admin.GET("/products/:id", h.ProductManagement.GetProduct)
		admin.PUT("/products/:id", h.ProductManagement.UpdateProduct)
		admin.DELETE("/products/:id", h.ProductManagement.DeleteProduct)
		admin.POST("/products/:id/thumbnail", h.ProductManagement.UploadThumbnail)
		admin.POST("/products/:id/screenshots", h.ProductManagement.UploadScreenshot)
		admin.POST("/products/:id/deliverable", h.ProductManagement.UploadDeliverable)

		// Orders
		admin.GET("/orders", h.AdminOrder.ListOrders)
		admin.GET("/orders/:id", h.AdminOrder.GetOrder)
		admin.PATCH("/orders/:id", h.AdminOrder.UpdateOrder)

		// Manual payment review
		admin.GET("/payment-confirmations", h.Confirmation.ListConfirmations)
		admin.GET("/payment-confirmations/:id", h.Confirmation.GetConfirmation)
		admin.POST("/payment-confirmations/:id/approve", h.Confirmation.Approve)
		admin.POST("/payment-confirmations/:id/reject", h.Confirmation.Reject)
		admin.GET("/payment-confirmations/:id/receipt", h.Confirmation.ReceiptURL)

		// Deploy requests
		admin.GET("/deploy-requests", h.DeployRequest.ListDeployRequests)
		admin.GET("/deploy-requests/:id", h.DeployRequest.GetDeployRequest)
		admin.PATCH("/deploy-requests/:id", h.DeployRequest.UpdateDeployRequest)

		// Leads
		admin.GET("/system-requests", h.SystemRequest.ListSystemRequests)
		admin.GET("/system-requests/:id", h.SystemRequest.GetSystemRequest)
		admin.PATCH("/system-requests/:id", h.SystemRequest.UpdateSystemRequest)

		// Settings
		admin.GET("/settings", h.Settings.GetSettings)
		admin.PUT("/settings", h.Settings.UpdateSettings)
	}
}
