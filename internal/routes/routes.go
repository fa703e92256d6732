package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fixmyhinge/fixmyhinge/internal/config"
	"github.com/fixmyhinge/fixmyhinge/internal/deletion"
	"github.com/fixmyhinge/fixmyhinge/internal/identity"
	"github.com/fixmyhinge/fixmyhinge/internal/intake"
	"github.com/fixmyhinge/fixmyhinge/internal/login"
	"github.com/fixmyhinge/fixmyhinge/internal/middleware"
	"github.com/fixmyhinge/fixmyhinge/internal/notification"
	"github.com/fixmyhinge/fixmyhinge/internal/photo"
	"github.com/fixmyhinge/fixmyhinge/internal/profile"
	"github.com/fixmyhinge/fixmyhinge/internal/storage"
)

// Deps aggregates shared dependencies required to wire routes. Nil backends
// are tolerated only in dev, where in-memory fallbacks take their place.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	S3     *s3.Client
	Dynamo *dynamodb.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce backend presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.S3 == nil || d.Dynamo == nil {
			return fmt.Errorf("aws clients are required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Platform boundary: hosted provider when an API key is configured,
	// otherwise the in-memory provider delivering codes through the notifier.
	var provider identity.Provider
	if d.Cfg.PlatformAPIKey != "" {
		provider = identity.NewHostedProvider(d.Cfg.PlatformBaseURL, d.Cfg.PlatformAPIKey)
	} else {
		notifier := notification.NewLoggerNotifier(d.Logger)
		provider = identity.NewMemoryProvider(notifier)
	}

	var profiles profile.Repository
	if d.DB != nil {
		profiles = profile.NewPostgresRepository(d.DB)
	} else {
		profiles = profile.NewMemoryRepository()
	}

	var photos photo.Repository
	if d.Dynamo != nil {
		photos = photo.NewDynamoRepository(d.Dynamo, d.Cfg.PhotoTable)
	} else {
		photos = photo.NewMemoryRepository()
	}

	var objects storage.ObjectStore
	if d.S3 != nil {
		objects = storage.NewS3Store(d.S3, d.Cfg.S3Bucket)
	} else {
		objects = storage.NewMemoryStore()
	}

	// Services and handlers
	profileSvc := profile.NewService(profiles, d.Logger)
	uploader := intake.NewUploader(objects, photos, profiles)
	cascade := deletion.NewCascade(objects, photos, profiles, provider, d.Logger)

	loginHandler := login.NewHandler(provider, profiles, d.Logger)
	profileHandler := profile.NewHandler(profileSvc)
	intakeHandler := intake.NewHandler(uploader, d.Cfg.MinPhotos, d.Cfg.MaxPhotos, d.Logger)
	deletionHandler := deletion.NewHandler(provider, cascade, d.Logger)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.ChallengeRateLimit(d.Cache, d.Cfg.ChallengeRateLimit)
	RegisterAuthRoutes(api, loginHandler, provider, rateLimiter)
	RegisterProfileRoutes(api, profileHandler, provider)
	RegisterPhotoRoutes(api, intakeHandler, provider)
	RegisterAccountRoutes(api, deletionHandler, provider, rateLimiter)

	return nil
}
