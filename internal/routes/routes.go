package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bearerauth/bearerauth/internal/auth"
	"github.com/bearerauth/bearerauth/internal/config"
	"github.com/bearerauth/bearerauth/internal/identity"
	"github.com/bearerauth/bearerauth/internal/middleware"
	"github.com/bearerauth/bearerauth/internal/notification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	// Users overrides the directory chosen from DB. Tests use it to inject
	// a pre-populated store.
	Users identity.Repository
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil && d.Users == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	users := d.Users
	if users == nil {
		if d.DB != nil {
			users = identity.NewPostgresRepository(d.DB)
		} else {
			users = identity.NewMemoryRepository()
		}
	}

	tokens, err := auth.NewTokenService([]byte(d.Cfg.JWTSecret), d.Cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	var notifier notification.Notifier = notification.NewLoggerNotifier(d.Logger)
	if d.Cache != nil {
		notifier = notification.NewRedisNotifier(d.Cache, notification.DefaultStream)
	}
	opts := []auth.Option{
		auth.WithStrictSession(d.Cfg.StrictSession),
		auth.WithNotifier(notifier),
		auth.WithLogger(d.Logger),
	}
	if d.Cfg.PasswordPolicy != "" {
		opts = append(opts, auth.WithPasswordPolicy(d.Cfg.PasswordPolicy))
	}
	if d.Cfg.BcryptCost != 0 {
		opts = append(opts, auth.WithHashCost(d.Cfg.BcryptCost))
	}
	authSvc := auth.NewService(users, tokens, opts...)
	authHandler := auth.NewHandler(authSvc)

	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.GetRequestID(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterIdentityRoutes(app, authHandler, middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	RegisterAuthRoutes(app, authHandler, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit, d.Logger))

	// Protected routes
	RegisterProfileRoutes(app, authHandler, middleware.BearerAuth(authSvc))

	return nil
}
