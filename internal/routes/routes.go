package routes

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/MarziehKaviani/IranianPooshesh/internal/auth"
	"github.com/MarziehKaviani/IranianPooshesh/internal/config"
	"github.com/MarziehKaviani/IranianPooshesh/internal/directory"
	"github.com/MarziehKaviani/IranianPooshesh/internal/middleware"
	"github.com/MarziehKaviani/IranianPooshesh/internal/notification"
	"github.com/MarziehKaviani/IranianPooshesh/internal/otp"
	"github.com/MarziehKaviani/IranianPooshesh/internal/phone"
	"github.com/MarziehKaviani/IranianPooshesh/internal/token"
	"github.com/MarziehKaviani/IranianPooshesh/internal/verification"
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
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
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
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Reference table and services
	countries, err := phone.LoadCountries()
	if err != nil {
		return err
	}
	validator := phone.NewValidator(countries)

	var users directory.Repository
	if d.DB != nil {
		users = directory.NewPostgresRepository(d.DB)
	} else {
		users = directory.NewMemoryRepository()
	}

	codes := otp.NewStore(d.Cache, d.Cfg.LoginOTPTTL)
	issuer := token.NewIssuer(d.Cfg)
	sms := notification.NewLoggerSender(d.Logger)
	authSvc := auth.NewService(validator, users, codes, issuer, sms, d.Logger)
	authHandler := auth.NewHandler(authSvc, issuer)

	var profiles verification.ProfileRepository
	if d.DB != nil {
		profiles = verification.NewPostgresProfileRepository(d.DB)
	} else {
		profiles = verification.NewMemoryProfileRepository()
	}
	verificationSvc := verification.NewService(d.Cache, profiles, d.Cfg.PreviewTTL, d.Logger)
	verificationHandler := verification.NewHandler(verificationSvc)

	// API routes
	api := app.Group("/api/v1")

	anonGate := middleware.AnonymousGate(issuer)
	sessionRequired := middleware.RequireUser(issuer)
	rateLimiter := middleware.PhoneRateLimit(d.Cache, d.Cfg.LoginRateLimit)

	RegisterAuthRoutes(api, authHandler, anonGate, sessionRequired, rateLimiter)
	RegisterVerificationRoutes(api, verificationHandler, sessionRequired)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
