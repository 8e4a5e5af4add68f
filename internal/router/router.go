package router

import (
	"time"

	"github.com/MuthonduG/reports-api/internal/config"
	"github.com/MuthonduG/reports-api/internal/facedetect"
	"github.com/MuthonduG/reports-api/internal/handler"
	"github.com/MuthonduG/reports-api/internal/mailer"
	"github.com/MuthonduG/reports-api/internal/middleware"
	"github.com/MuthonduG/reports-api/internal/notify"
	"github.com/MuthonduG/reports-api/internal/otp"
	"github.com/MuthonduG/reports-api/internal/storage"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and wires all API routes.
func SetupRouter(cfg *config.Config, db *gorm.DB, store storage.Storage, gate *facedetect.Gate, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(logger, true))

	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP, logger)
	otpService := otp.NewService(db, smtpMailer,
		time.Duration(cfg.OTP.ExpireMinutes)*time.Minute, logger)
	notifier := notify.NewService(db, logger)

	api := r.Group("/api")

	// unauthenticated surface
	guestHandler := handler.NewGuestHandler(db, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.Guest.ExpireDays)
	api.POST("/guest-token/", guestHandler.GuestToken)

	userHandler := handler.NewUserHandler(db, otpService, cfg.JWT, cfg.Users.AllowedDomain, logger)
	api.POST("/auth/login", userHandler.Login)
	api.POST("/users/verify-email", userHandler.VerifyEmail)
	api.POST("/users/resend-otp/:email", userHandler.ResendOTP)

	// authenticated surface (users and guests)
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret, db))

	reportHandler := handler.NewReportHandler(db, gate, store, notifier, logger)
	reports := protected.Group("/reports")
	reports.GET("/get_reports", reportHandler.ListReports)
	reports.GET("/get_report/:id", reportHandler.GetReport)
	reports.POST("/create_report", middleware.RequireUser(), reportHandler.CreateReport)
	reports.PUT("/update_report/:id", middleware.RequireUser(), reportHandler.UpdateReport)
	reports.DELETE("/delete_report/:id", middleware.RequireUser(), reportHandler.DeleteReport)

	protected.GET("/notifications", middleware.RequireUser(), reportHandler.ListNotifications)

	users := protected.Group("/users", middleware.RequireUser())
	users.GET("", userHandler.ListUsers)
	users.GET("/:id", userHandler.GetUser)
	users.POST("/register", middleware.RequireStaff(), userHandler.Register)
	users.PUT("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", userHandler.DeleteUser)

	exportHandler := handler.NewExportHandler(db)
	exports := protected.Group("/reports/export", middleware.RequireStaff())
	exports.GET("/csv", exportHandler.ExportCSV)
	exports.GET("/xlsx", exportHandler.ExportXLSX)

	return r
}
