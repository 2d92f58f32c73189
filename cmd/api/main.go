package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/storefront_api/internal/cache"
	"github.com/GTDGit/storefront_api/internal/config"
	"github.com/GTDGit/storefront_api/internal/database"
	"github.com/GTDGit/storefront_api/internal/handler"
	"github.com/GTDGit/storefront_api/internal/mail"
	"github.com/GTDGit/storefront_api/internal/metrics"
	"github.com/GTDGit/storefront_api/internal/middleware"
	"github.com/GTDGit/storefront_api/internal/repository"
	"github.com/GTDGit/storefront_api/internal/service"
	"github.com/GTDGit/storefront_api/internal/sse"
	"github.com/GTDGit/storefront_api/internal/utils"
	"github.com/GTDGit/storefront_api/internal/worker"
	"github.com/GTDGit/storefront_api/pkg/payssd"
)

// main is the entrypoint of the storefront API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting storefront api")

	// 3. Connect database and run migrations
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db.DB, database.DefaultMigrationsURL); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3a. Redis is optional: without it the catalog is served uncached and
	// the form limiter keeps its counters in memory.
	var (
		catalogCache service.CatalogCache
		formLimiter  middleware.Limiter
		memLimiter   *middleware.MemoryLimiter
	)
	checks := map[string]handler.Check{
		"database": func(ctx context.Context) error { return db.PingContext(ctx) },
	}
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using in-memory rate limits and no catalog cache")
		memLimiter = middleware.NewMemoryLimiter(cfg.RateLimit.FormLimit, cfg.RateLimit.FormWindow)
		formLimiter = memLimiter
	} else {
		defer redisClient.Close()
		log.Info().Msg("redis connected successfully")
		catalogCache = cache.NewCatalogCache(redisClient, cfg.Store.CatalogCacheTTL)
		formLimiter = middleware.NewRedisLimiter(redisClient, "forms", cfg.RateLimit.FormLimit, cfg.RateLimit.FormWindow)
		checks["redis"] = redisClient.Ping
	}

	// 4. External clients
	storage, err := service.NewS3Service(context.Background(), &cfg.S3)
	if err != nil {
		log.Error().Err(err).Msg("object storage init failed")
		fmt.Fprintf(os.Stderr, "object storage init failed: %v\n", err)
		os.Exit(1)
	}

	gateway := payssd.NewClient(cfg.PaySSD.BaseURL, cfg.PaySSD.SecretKey)
	if !gateway.Configured() {
		log.Warn().Msg("PAYSSD_SECRET_KEY not set, checkout falls back to manual payment")
	}

	mailer, err := mail.NewFromConfig(cfg.Mail)
	if err != nil {
		log.Error().Err(err).Msg("mail provider init failed")
		fmt.Fprintf(os.Stderr, "mail provider init failed: %v\n", err)
		os.Exit(1)
	}
	renderer, err := mail.NewRenderer()
	if err != nil {
		log.Error().Err(err).Msg("mail templates failed to parse")
		os.Exit(1)
	}

	// 5. Metrics and live events
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	hub := sse.NewHub()
	events := sse.NewHubNotifier(hub)

	utils.InitJWT(cfg.JWTSecret, cfg.JWTTTL)

	// 6. Repositories
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	licenseRepo := repository.NewLicenseRepository(db)
	deployRepo := repository.NewDeployRequestRepository(db)
	confirmationRepo := repository.NewPaymentConfirmationRepository(db)
	systemRequestRepo := repository.NewSystemRequestRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	webhookRepo := repository.NewWebhookEventRepository(db)
	adminUserRepo := repository.NewAdminUserRepository(db)

	// 7. Services
	notifySvc := service.NewNotificationService(mailer, renderer, cfg.Store.AdminEmail, cfg.Store.SiteURL, appMetrics)
	settingsSvc := service.NewSettingsService(settingsRepo, cfg.Payout)
	fulfillmentSvc := service.NewFulfillmentService(orderRepo, productRepo, notifySvc, events, appMetrics)
	catalogSvc := service.NewCatalogService(productRepo, catalogCache, storage)
	checkoutSvc := service.NewCheckoutService(productRepo, orderRepo, gateway, cfg.Store.SiteURL, appMetrics)
	orderSvc := service.NewOrderService(orderRepo, productRepo, licenseRepo, deployRepo, confirmationRepo, storage, cfg.Store.SellerName, cfg.Store.SiteURL)
	paymentSvc := service.NewPaymentService(orderRepo, productRepo, confirmationRepo, settingsSvc, storage, fulfillmentSvc, notifySvc, events, appMetrics,
		service.PaymentServiceConfig{AutoApprove: cfg.Store.AutoApprove, MaxReceiptBytes: cfg.Store.MaxReceiptBytes})
	webhookSvc := service.NewWebhookService(webhookRepo, orderRepo, fulfillmentSvc, cfg.PaySSD.WebhookSecret, cfg.PaySSD.WebhookTolerance, appMetrics)
	leadSvc := service.NewLeadService(systemRequestRepo, notifySvc, events)
	adminAuthSvc := service.NewAdminAuthService(adminUserRepo)
	productMgmtSvc := service.NewProductManagementService(productRepo, storage, catalogCache)
	adminOrderSvc := service.NewAdminOrderService(orderRepo, productRepo, licenseRepo, deployRepo, confirmationRepo, fulfillmentSvc, events)
	reviewSvc := service.NewConfirmationReviewService(confirmationRepo, orderRepo, productRepo, settingsSvc, storage, fulfillmentSvc, events)
	deploySvc := service.NewDeployRequestService(deployRepo)

	if cfg.PaySSD.WebhookSecret == "" {
		log.Warn().Msg("PAYSSD_WEBHOOK_SECRET not set, webhook signatures are not verified")
	}
	if cfg.Store.AutoApprove {
		log.Info().Msg("auto-approval of matching manual payments is enabled")
	}

	// 8. Handlers
	handlers := &handler.Handlers{
		Health:            handler.NewHealthHandler(checks),
		Product:           handler.NewProductHandler(catalogSvc),
		Checkout:          handler.NewCheckoutHandler(checkoutSvc, paymentSvc, cfg.Store.MaxReceiptBytes),
		Order:             handler.NewOrderHandler(orderSvc),
		SSE:               handler.NewSSEHandler(hub, orderSvc),
		Webhook:           handler.NewWebhookHandler(webhookSvc),
		Form:              handler.NewFormHandler(leadSvc),
		Auth:              handler.NewAuthHandler(adminAuthSvc),
		ProductManagement: handler.NewProductManagementHandler(productMgmtSvc),
		AdminOrder:        handler.NewAdminOrderHandler(adminOrderSvc),
		Confirmation:      handler.NewConfirmationHandler(reviewSvc),
		DeployRequest:     handler.NewDeployRequestHandler(deploySvc),
		SystemRequest:     handler.NewSystemRequestHandler(leadSvc),
		Settings:          handler.NewSettingsHandler(settingsSvc),
	}
	if err := handler.RegisterValidators(); err != nil {
		log.Error().Err(err).Msg("failed to register validators")
		os.Exit(1)
	}

	// 9. Setup router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Store.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware(appMetrics))
	handler.RegisterRoutes(router, handlers, handler.RouteMiddleware{
		JWT:       middleware.NewJWTMiddleware(),
		StreamJWT: middleware.NewStreamJWTMiddleware(),
		FormLimit: formLimiter,
		Metrics:   appMetrics,
		Gatherer:  registry,
	})

	// 10. Start background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	statusWorker := worker.NewStatusCheckWorker(orderRepo, gateway, fulfillmentSvc, appMetrics,
		cfg.Worker.StatusCheckInterval, cfg.Worker.StatusCheckStaleAfter, cfg.Worker.StatusCheckMaxAge)
	go statusWorker.Start(ctx)
	if memLimiter != nil {
		go memLimiter.Cleanup(ctx, cfg.RateLimit.FormWindow)
	}

	// 11. Start HTTP server. WriteTimeout stays zero so SSE streams and
	// large deliverable uploads are not cut off.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// 13. Stop background workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
