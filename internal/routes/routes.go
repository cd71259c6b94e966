package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kivu-bank/kivu_kyc/internal/auth"
	"github.com/kivu-bank/kivu_kyc/internal/config"
	"github.com/kivu-bank/kivu_kyc/internal/device"
	"github.com/kivu-bank/kivu_kyc/internal/documents"
	"github.com/kivu-bank/kivu_kyc/internal/kyc"
	"github.com/kivu-bank/kivu_kyc/internal/middleware"
	"github.com/kivu-bank/kivu_kyc/internal/notification"
	"github.com/kivu-bank/kivu_kyc/internal/otp"
	"github.com/kivu-bank/kivu_kyc/internal/review"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev: config only requires the
	// store URLs there, and main skips connecting when they are absent.
	if !d.Cfg.Dev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.SecurityHeaders(d.Cfg.Headers))
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Delivery gateways: real providers when configured, logging stubs otherwise.
	var smsSender notification.SMSSender = notification.NewLoggerSender(d.Logger)
	if d.Cfg.SMSGatewayURL != "" {
		smsSender = notification.NewSMSGateway(d.Cfg.SMSGatewayURL, d.Cfg.SMSGatewayToken, d.Cfg.SMSSenderID)
	}
	var mailSender notification.MailSender = notification.NewLoggerSender(d.Logger)
	if d.Cfg.SMTPHost != "" {
		mailSender = notification.NewSMTPMailer(d.Cfg.SMTPHost, d.Cfg.SMTPPort, d.Cfg.SMTPUsername, d.Cfg.SMTPPassword, d.Cfg.SMTPFrom)
	}

	// Repositories
	var otpRepo otp.Repository
	var infoRepo kyc.Repository
	var docsRepo documents.Repository
	if d.DB != nil {
		otpRepo = otp.NewPostgresRepository(d.DB)
		infoRepo = kyc.NewPostgresRepository(d.DB)
		docsRepo = documents.NewPostgresRepository(d.DB)
	} else {
		otpRepo = otp.NewMemoryRepository()
		infoRepo = kyc.NewMemoryRepository()
		docsRepo = documents.NewMemoryRepository()
	}

	// Services
	signer, err := auth.NewSigner(d.Cfg.SigningKeyPEM, d.Cfg.TokenIssuer)
	if err != nil {
		return err
	}
	otpSvc := otp.NewService(otpRepo, smsSender, d.Cfg.OTPSalt, d.Cfg.OTPTTL, d.Cfg.OTPMaxAttempts, d.Logger)
	infoSvc := kyc.NewService(infoRepo, mailSender, signer, d.Cfg.EmailOTPTTL, d.Cfg.KYCCertTTL, d.Logger)
	docsSvc := documents.NewService(docsRepo, d.Logger)
	reviewSvc := review.NewService(infoRepo, docsSvc, otpRepo, d.Logger)
	deviceSvc := device.NewService(otpRepo, signer, d.Cfg.OTPSalt, d.Cfg.PoWDifficulty, d.Cfg.DeviceCertTTL, d.Logger)

	// Handlers
	otpHandler := otp.NewHandler(otpSvc)
	kycHandler := kyc.NewHandler(infoSvc)
	docsHandler := documents.NewHandler(docsSvc)
	reviewHandler := review.NewHandler(reviewSvc)
	deviceHandler := device.NewHandler(deviceSvc)
	tokenHandler := auth.NewHandler(signer, d.Cfg.RecoveryTTL)

	api := app.Group("/api/v1")

	// Public routes
	rateLimiter := middleware.OTPRateLimit(d.Cache, 3)
	RegisterOTPRoutes(api, otpHandler, rateLimiter)
	RegisterDeviceRoutes(api, deviceHandler)

	// Applicant routes: device certificate required; submissions are idempotent.
	jwtmw := middleware.JWTAuth(signer)
	applicant := api.Group("", jwtmw)
	if d.Cache != nil {
		applicant = applicant.Group("", middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	RegisterKYCRoutes(applicant, kycHandler)
	RegisterDocumentRoutes(applicant, docsHandler)

	// Reviewer routes
	reviewer := api.Group("/review", jwtmw, middleware.RequireAuthority(d.Cfg.ReviewAuthority))
	RegisterReviewRoutes(reviewer, reviewHandler, kycHandler)
	RegisterTokenRoutes(reviewer, tokenHandler)

	return nil
}
