package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"backoffice/internal/cache"
	"backoffice/internal/config"
	"backoffice/internal/database"
	"backoffice/internal/handlers"
	"backoffice/internal/middleware"
	"backoffice/internal/pricing"
	"backoffice/internal/repositories"
	"backoffice/internal/services"
	"backoffice/pkg/rabbitmq"
)

// App is the wired back office: the Fiber app plus the connections it owns.
type App struct {
	Fiber *fiber.App

	db       *gorm.DB
	mq       *rabbitmq.Client
	redis    *redis.Client
	features fiber.Map
}

// NewApp connects to the database and the optional broker and cache, builds
// every service and registers the HTTP routes.
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	a := &App{db: db, features: fiber.Map{"rabbitmq": "disabled", "redis": "disabled"}}

	// --- Repositories ---
	orderRepo := repositories.NewGORMOrderRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	catalogRepo := repositories.NewGORMCatalogRepository(db)
	paymentRepo := repositories.NewGORMPaymentRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)
	auditRepo := repositories.NewGORMAuditRepository(db)
	notificationRepo := repositories.NewGORMNotificationRepository(db)
	reportRepo := repositories.NewGORMReportRepository(db)

	// --- Optional infrastructure ---
	var publisher services.EventPublisher
	if cfg.RabbitMQEnabled {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange})
		if err != nil {
			log.Printf("Warning: RabbitMQ unavailable, order events are disabled: %v", err)
		} else {
			a.mq = mqClient
			publisher = mqClient
			a.features["rabbitmq"] = "connected"
		}
	}

	var reportCache services.ReportCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		redisCache := cache.NewRedisCache(client, cfg.DashboardCacheTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := redisCache.Ping(ctx)
		cancel()
		if err != nil {
			log.Printf("Warning: Redis unavailable, dashboard caching is disabled: %v", err)
			client.Close()
		} else {
			a.redis = client
			reportCache = redisCache
			a.features["redis"] = "connected"
		}
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	productService := services.NewProductService(productRepo, catalogRepo, auditRepo, notificationRepo)
	paymentService := services.NewPaymentService(paymentRepo, auditRepo)
	reportService := services.NewReportService(reportRepo, productRepo, notificationRepo, reportCache)
	orderService := services.NewOrderService(orderRepo, productRepo, paymentRepo, auditRepo, publisher, services.OrderConfig{
		Policy:            pricing.NewStatusPolicy(cfg.OrderStrictTransitions),
		MaxNumberAttempts: cfg.OrderNumberMaxAttempts,
		Reports:           reportService,
	})
	notificationService := services.NewNotificationService(notificationRepo)
	auditService := services.NewAuditService(auditRepo)

	if err := authService.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create admin account: %w", err)
	}

	// --- Fiber app ---
	app := fiber.New()
	app.Use(logger.New())
	app.Get("/health", a.handleHealth)

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/health", a.handleHealth)

	guards := handlers.Guards{
		Auth:  middleware.AuthRequired(authService),
		Admin: middleware.AdminRequired(),
	}
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1, guards)
	handlers.NewProductHandler(productService).RegisterRoutes(apiV1, guards)
	handlers.NewOrderHandler(orderService).RegisterRoutes(apiV1, guards)
	handlers.NewPaymentHandler(paymentService).RegisterRoutes(apiV1, guards)
	handlers.NewReportHandler(reportService, notificationService, auditService).RegisterRoutes(apiV1, guards)
	a.Fiber = app

	// --- Order event consumer ---
	if a.mq != nil {
		err := a.mq.ConsumeOrderEvents(func(routingKey string, body []byte) error {
			return notificationService.HandleOrderEvent(context.Background(), routingKey, body)
		})
		if err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	}
	return a, nil
}

func (a *App) handleHealth(c *fiber.Ctx) error {
	status, code := "healthy", fiber.StatusOK
	dbStatus := "connected"
	if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		status, code, dbStatus = "unhealthy", fiber.StatusServiceUnavailable, "unreachable"
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"time":     time.Now().Format(time.RFC3339),
		"database": dbStatus,
		"rabbitmq": a.features["rabbitmq"],
		"redis":    a.features["redis"],
	})
}

// Close releases the broker, cache and database connections.
func (a *App) Close() {
	if a.mq != nil {
		if err := a.mq.Close(); err != nil {
			log.Printf("Error closing RabbitMQ client: %v", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}
}
