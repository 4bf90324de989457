package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/wastebill/wastebill-backend/config"
	"github.com/wastebill/wastebill-backend/internal/app/controller"
	"github.com/wastebill/wastebill-backend/internal/metrics"
	"github.com/wastebill/wastebill-backend/internal/middleware"
)

// Controllers groups every HTTP handler set the router mounts
type Controllers struct {
	Auth         *controller.AuthController
	Admin        *controller.AdminController
	Address      *controller.AddressController
	User         *controller.UserController
	Waste        *controller.WasteController
	Price        *controller.PriceController
	Bill         *controller.BillController
	PaymentSlip  *controller.PaymentSlipController
	Issue        *controller.IssueController
	Notification *controller.NotificationController
	Report       *controller.ReportController
	LiveFeed     *controller.LiveFeedController
}

type Router struct {
	controllers    Controllers
	authMiddleware *middleware.AuthMiddleware
	metrics        *metrics.Metrics
	redis          *goredis.Client
	config         *config.Config
	uploadDir      string // served at Storage.PublicPath when non-empty
}

func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	m *metrics.Metrics,
	rdb *goredis.Client,
	cfg *config.Config,
	uploadDir string,
) *Router {
	return &Router{
		controllers:    controllers,
		authMiddleware: authMiddleware,
		metrics:        m,
		redis:          rdb,
		config:         cfg,
		uploadDir:      uploadDir,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()
	router.MaxMultipartMemory = r.config.Storage.MaxUploadBytes + 1<<20

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	if r.metrics != nil {
		router.Use(middleware.MetricsMiddleware(r.metrics))
	}
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Waste billing API is running",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if r.uploadDir != "" {
		router.Static(r.config.Storage.PublicPath, r.uploadDir)
	}

	ctl := r.controllers
	auth := r.authMiddleware
	rateLimit := middleware.RateLimit(r.config.RateLimit, r.redis)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/prices", ctl.Price.GetPrices)

		authGroup := v1.Group("/auth")
		authGroup.Use(rateLimit)
		{
			authGroup.POST("/line/register", ctl.Auth.RegisterWithLine)
			authGroup.POST("/line/login", ctl.Auth.LoginWithLine)
			authGroup.POST("/refresh", ctl.Auth.RefreshToken)
			authGroup.POST("/logout", auth.Authenticate(), ctl.Auth.Logout)
		}

		resident := v1.Group("")
		resident.Use(auth.Authenticate(), auth.RequireResident())
		{
			resident.GET("/me", ctl.Auth.GetMe)
			resident.PUT("/me", ctl.Auth.UpdateMe)

			resident.GET("/addresses", ctl.Address.ListAddresses)
			resident.POST("/addresses", ctl.Address.CreateAddress)
			resident.PUT("/addresses/:id", ctl.Address.UpdateAddress)
			resident.DELETE("/addresses/:id", ctl.Address.DeleteAddress)

			resident.GET("/bills", ctl.Bill.ListMyBills)
			resident.GET("/bills/:id", ctl.Bill.GetMyBill)

			resident.GET("/waste/stats", ctl.Waste.MyStats)

			resident.POST("/payment-slips", ctl.PaymentSlip.Upload)
			resident.GET("/payment-slips", ctl.PaymentSlip.ListMySlips)

			resident.POST("/issues", ctl.Issue.CreateIssue)
			resident.GET("/issues", ctl.Issue.ListMyIssues)

			resident.GET("/notifications", ctl.Notification.GetNotifications)
			resident.GET("/notifications/unread-count", ctl.Notification.GetUnreadCount)
			resident.PUT("/notifications/read-all", ctl.Notification.MarkAllAsRead)
			resident.PUT("/notifications/:id/read", ctl.Notification.MarkAsRead)
		}

		admin := v1.Group("/admin")
		{
			admin.POST("/auth/login", rateLimit, ctl.Admin.Login)

			staff := admin.Group("")
			staff.Use(auth.Authenticate(), auth.RequireAdmin())
			{
				staff.POST("/auth/logout", ctl.Auth.Logout)
				staff.GET("/auth/me", ctl.Admin.Me)
				staff.GET("/policy", ctl.Admin.Policy)
				staff.GET("/ws", ctl.LiveFeed.Connect)

				admins := staff.Group("/admins", auth.RequirePermission(middleware.PermAdminsManage))
				{
					admins.GET("", ctl.Admin.ListAdmins)
					admins.POST("", ctl.Admin.CreateAdmin)
					admins.DELETE("/:id", ctl.Admin.DeactivateAdmin)
				}

				users := staff.Group("/users", auth.RequirePermission(middleware.PermUsersManage))
				{
					users.GET("", ctl.User.ListUsers)
					users.GET("/:id", ctl.User.GetUser)
					users.PUT("/:id/verify", ctl.User.VerifyUser)
					users.DELETE("/:id", ctl.User.DeleteUser)
				}

				staff.GET("/addresses", auth.RequirePermission(middleware.PermAddressesVerify), ctl.Address.AdminListAddresses)
				staff.PUT("/addresses/:id/verify", auth.RequirePermission(middleware.PermAddressesVerify), ctl.Address.VerifyAddress)
				staff.GET("/addresses/scan/:barcode", auth.RequirePermission(middleware.PermWasteRecord), ctl.Waste.ScanBarcode)

				records := staff.Group("/waste-records", auth.RequirePermission(middleware.PermWasteRecord))
				{
					records.POST("", ctl.Waste.RecordWaste)
					records.GET("", ctl.Waste.ListRecords)
				}

				prices := staff.Group("/prices", auth.RequirePermission(middleware.PermPricesManage))
				{
					prices.GET("", ctl.Price.GetPrices)
					prices.PUT("", ctl.Price.UpdatePrices)
				}

				bills := staff.Group("/bills", auth.RequirePermission(middleware.PermBillsManage))
				{
					bills.GET("", ctl.Bill.ListBills)
					bills.GET("/:id", ctl.Bill.GetBill)
					bills.POST("/manual", ctl.Bill.CreateManualBill)
					bills.POST("/generate", ctl.Bill.GenerateMonthly)
					bills.PUT("/:id/status", ctl.Bill.UpdateBillStatus)
				}

				slips := staff.Group("/payment-slips", auth.RequirePermission(middleware.PermSlipsReview))
				{
					slips.GET("", ctl.PaymentSlip.ListSlips)
					slips.GET("/:id", ctl.PaymentSlip.GetSlip)
					slips.PUT("/:id/review", ctl.PaymentSlip.Review)
				}

				issues := staff.Group("/issues", auth.RequirePermission(middleware.PermIssuesManage))
				{
					issues.GET("", ctl.Issue.ListIssues)
					issues.PUT("/:id/acknowledge", ctl.Issue.AcknowledgeIssue)
					issues.PUT("/:id/resolve", ctl.Issue.ResolveIssue)
				}

				reports := staff.Group("/reports", auth.RequirePermission(middleware.PermReportsExport))
				{
					reports.GET("/finance", ctl.Report.FinanceReport)
					reports.GET("/waste", ctl.Report.WasteReport)
				}

				staff.GET("/audit-logs", auth.RequirePermission(middleware.PermAuditView), ctl.Report.ListAuditLogs)
			}
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, X-Request-ID, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
