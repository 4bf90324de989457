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

	"github.com/wastebill/wastebill-backend/config"
	"github.com/wastebill/wastebill-backend/internal/app/controller"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/app/service"
	"github.com/wastebill/wastebill-backend/internal/db"
	"github.com/wastebill/wastebill-backend/internal/metrics"
	"github.com/wastebill/wastebill-backend/internal/middleware"
	"github.com/wastebill/wastebill-backend/internal/router"
	"github.com/wastebill/wastebill-backend/internal/scheduler"
	"github.com/wastebill/wastebill-backend/internal/storage"
	"github.com/wastebill/wastebill-backend/internal/websocket"
	"github.com/wastebill/wastebill-backend/pkg/line"
	"github.com/wastebill/wastebill-backend/pkg/logger"
	"github.com/wastebill/wastebill-backend/pkg/redis"
	"github.com/wastebill/wastebill-backend/pkg/util"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := cfg.Log.Level
	if logLevel == "" {
		logLevel = "info"
		if cfg.Server.Environment == "development" {
			logLevel = "debug"
		}
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      cfg.Log.Format,
		EnableColor: cfg.Server.Environment == "development",
	})

	logger.Info("Starting waste billing backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	if err := util.RegisterValidators(); err != nil {
		logger.Fatal("Failed to register validators", err)
	}

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations, seed price table and bootstrap admin
	if err := db.Migrate(&cfg.Bootstrap); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis is optional: without it tokens cannot be revoked early,
	// prices are read from the database and rate limiting is off.
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, continuing without cache", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close redis connection", err)
		}
	}()

	loc := cfg.Billing.Location()
	appMetrics := metrics.Registry("wastebill")

	store, err := storage.New(&cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize slip storage", err)
	}

	lineClient, err := line.NewClient(line.Config{
		ChannelID:      cfg.Line.ChannelID,
		MessagingToken: cfg.Line.MessagingToken,
		BaseURL:        cfg.Line.APIBaseURL,
	})
	if err != nil {
		logger.Fatal("Failed to initialize LINE client", err)
	}
	var pusher service.LinePusher
	if cfg.Line.PushEnabled && lineClient.GetConfig().CanPush() {
		pusher = lineClient
	} else {
		logger.Warn("LINE push disabled, notifications stay in the inbox only", nil)
	}

	hub := websocket.NewHub(cfg.CORS.AllowedOrigins)
	go hub.Run()
	defer hub.Stop()

	database := db.GetDB()

	// Initialize repositories
	userRepo := repository.NewUserRepository(database)
	adminRepo := repository.NewAdminRepository(database)
	addressRepo := repository.NewAddressRepository(database)
	priceRepo := repository.NewWastePriceRepository(database)
	recordRepo := repository.NewWasteRecordRepository(database)
	billRepo := repository.NewBillRepository(database)
	slipRepo := repository.NewPaymentSlipRepository(database)
	issueRepo := repository.NewIssueRepository(database)
	notifRepo := repository.NewNotificationRepository(database)
	auditRepo := repository.NewAuditRepository(database)

	// Initialize services
	auditService := service.NewAuditService(auditRepo)
	notificationService := service.NewNotificationService(notifRepo, pusher, appMetrics)
	authService := service.NewAuthService(
		userRepo,
		adminRepo,
		lineClient,
		notificationService,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	adminService := service.NewAdminService(adminRepo, auditService, cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)
	userService := service.NewUserService(userRepo, auditService, notificationService)
	addressService := service.NewAddressService(addressRepo, auditService)
	priceService := service.NewWastePriceService(database, priceRepo, auditService)
	recordService := service.NewWasteRecordService(recordRepo, addressRepo, priceService, auditService, loc)
	billingService := service.NewBillingService(service.BillingServiceDeps{
		DB:            database,
		BillRepo:      billRepo,
		RecordRepo:    recordRepo,
		AddressRepo:   addressRepo,
		Prices:        priceService,
		Audit:         auditService,
		Notifications: notificationService,
		Events:        hub,
		Metrics:       appMetrics,
		Location:      loc,
		DueDay:        cfg.Billing.DueDay,
	})
	slipService := service.NewPaymentSlipService(service.PaymentSlipServiceDeps{
		DB:             database,
		SlipRepo:       slipRepo,
		BillRepo:       billRepo,
		Storage:        store,
		Audit:          auditService,
		Notifications:  notificationService,
		Events:         hub,
		Metrics:        appMetrics,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})
	issueService := service.NewIssueService(issueRepo, addressRepo, auditService, notificationService, hub)
	reportService := service.NewReportService(billRepo, recordRepo, addressRepo, auditService, loc)

	billingScheduler := scheduler.NewBillingScheduler(billingService, cfg.Billing.CronSpec, loc)
	if cfg.Billing.Enabled {
		if err := billingScheduler.Start(); err != nil {
			logger.Fatal("Failed to start billing scheduler", err)
		}
		defer billingScheduler.Stop()
	}

	// Initialize controllers
	controllers := router.Controllers{
		Auth:         controller.NewAuthController(authService),
		Admin:        controller.NewAdminController(adminService),
		Address:      controller.NewAddressController(addressService),
		User:         controller.NewUserController(userService),
		Waste:        controller.NewWasteController(recordService, loc),
		Price:        controller.NewPriceController(priceService),
		Bill:         controller.NewBillController(billingService, billingScheduler, loc),
		PaymentSlip:  controller.NewPaymentSlipController(slipService, cfg.Storage.MaxUploadBytes),
		Issue:        controller.NewIssueController(issueService),
		Notification: controller.NewNotificationController(notificationService),
		Report:       controller.NewReportController(reportService, auditService, loc),
		LiveFeed:     controller.NewLiveFeedController(hub),
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	var uploadDir string
	if local, ok := store.(*storage.LocalStorage); ok {
		uploadDir = local.Root()
	}

	// Setup router
	r := router.NewRouter(controllers, authMiddleware, appMetrics, redis.GetClient(), cfg, uploadDir)
	engine := r.Setup()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
