package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/visagepay/visagepay/internal/auth"
	"github.com/visagepay/visagepay/internal/biometric"
	"github.com/visagepay/visagepay/internal/config"
	"github.com/visagepay/visagepay/internal/enrollment"
	"github.com/visagepay/visagepay/internal/face"
	"github.com/visagepay/visagepay/internal/funding"
	"github.com/visagepay/visagepay/internal/identity"
	"github.com/visagepay/visagepay/internal/ledger"
	"github.com/visagepay/visagepay/internal/middleware"
	"github.com/visagepay/visagepay/internal/notification"
	"github.com/visagepay/visagepay/internal/payments"
	"github.com/visagepay/visagepay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg        config.Config
	DB         *pgxpool.Pool
	Cache      *redis.Client
	Logger     *slog.Logger
	Normalizer face.Normalizer
	Matcher    face.Matcher
	Templates  biometric.TemplateStore
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}
	if d.Normalizer == nil || d.Matcher == nil {
		return fmt.Errorf("face normalizer and matcher are required")
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var ledgerBackend ledger.Ledger
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
	}

	var walletRepo wallet.Repository
	if d.DB != nil {
		walletRepo = wallet.NewPostgresRepository(d.DB)
	} else {
		walletRepo = wallet.NewMemoryRepository()
	}
	walletSvc := wallet.NewService(walletRepo, ledgerBackend)

	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}
	identitySvc := identity.NewService(identityRepo)

	templates := d.Templates
	if templates == nil {
		templates = biometric.NewMemoryStore()
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	verifier := biometric.NewAuthenticator(templates, d.Normalizer, d.Matcher, d.Logger)
	enrollmentSvc := enrollment.NewService(identitySvc, walletSvc, templates, d.Normalizer, d.Logger)
	paymentSvc := payments.NewService(ledgerBackend, walletSvc, identitySvc, verifier, notifier, d.Logger)
	fundingSvc, err := funding.NewService(context.Background(), ledgerBackend, walletSvc, notifier)
	if err != nil {
		return err
	}
	authSvc := auth.NewService(d.Cfg)

	if d.Cfg.IsDev() && d.DB == nil {
		seedDevAdmin(identitySvc, walletSvc, d.Logger)
	}

	authHandler := auth.NewHandler(identitySvc, authSvc, walletSvc)
	enrollmentHandler := enrollment.NewHandler(enrollmentSvc)
	paymentHandler := payments.NewHandler(paymentSvc)
	fundingHandler := funding.NewHandler(fundingSvc)
	walletHandler := wallet.NewHandler(walletSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	protected := api.Group("", middleware.JWTAuth(authSvc))
	staff := middleware.RequireRole(identity.RoleAdmin, identity.RoleShopOwner)

	RegisterIdentityRoutes(protected, identitySvc, walletSvc)
	RegisterEnrollmentRoutes(protected, enrollmentHandler, staff)
	RegisterWalletRoutes(protected, walletSvc, walletHandler, identityRepo)
	RegisterFundingRoutes(protected, fundingHandler, staff)
	RegisterBillRoutes(protected, paymentHandler, staff)

	return nil
}

// seedDevAdmin provisions a throwaway admin so the API is usable without a
// database. Never runs outside dev.
func seedDevAdmin(ids *identity.Service, wallets *wallet.Service, logger *slog.Logger) {
	ctx := context.Background()
	admin, err := ids.Register(ctx, identity.RegisterInput{
		Username: "admin",
		Password: "admin-dev-only",
		Role:     identity.RoleAdmin,
	})
	if err != nil {
		logger.Warn("seed dev admin", "error", err)
		return
	}
	if _, err := wallets.Create(ctx, admin.ID); err != nil {
		logger.Warn("seed dev admin wallet", "error", err)
	}
	logger.Info("dev admin seeded", "username", admin.Username)
}
