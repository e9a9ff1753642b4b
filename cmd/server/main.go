package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/pr-poehali-dev/fashion-photo-search/internal/client"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/config"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/handler"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/middleware"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/prediction"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/repository"
	"github.com/pr-poehali-dev/fashion-photo-search/internal/service"
	"github.com/pr-poehali-dev/fashion-photo-search/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client (optional - rate limiting is skipped without it)
	var redisClient *redis.Client
	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rc.Ping(context.Background()).Err(); err != nil {
		log.Printf("Warning: Redis not available, rate limiting disabled: %v", err)
	} else {
		redisClient = rc
	}

	// Initialize validator
	validate := validator.New()

	// Initialize object storage (optional - continues with mock URLs)
	var storageClient client.StorageClient
	if cfg.Storage.AccessKeyID != "" && cfg.Storage.SecretAccessKey != "" {
		s3Client, err := client.NewS3Client(&cfg.Storage)
		if err != nil {
			log.Printf("Warning: storage client not initialized: %v", err)
		} else {
			storageClient = s3Client
		}
	} else {
		log.Println("Info: object storage not configured, using mock storage")
	}

	// Initialize database (optional - continues without persistence)
	var store *repository.Store
	if cfg.Database.URL != "" {
		store, err = repository.New(cfg.Database.URL)
		if err != nil {
			log.Printf("Warning: database not initialized, history disabled: %v", err)
			store = nil
		}
	} else {
		log.Println("Info: database not configured, history disabled")
	}

	// Initialize search and prediction upstreams (optional)
	searchClient := client.NewGoogleSearchClient(&cfg.GoogleSearch)
	replicateClient := client.NewReplicateClient(&cfg.Replicate)

	var gateway *prediction.Gateway
	if replicateClient.IsConfigured() {
		gateway = prediction.NewGateway(replicateClient)
	} else {
		log.Println("Info: prediction service not configured, using fallback results")
	}

	// Initialize services
	searchService := service.NewSearchService(storageClient, searchClient, gateway, store, &cfg.Search)
	tryonService := service.NewTryonService(storageClient, gateway, store, cfg.Replicate.TryonModel)

	// Initialize handlers
	searchHandler := handler.NewSearchHandler(searchService, validate)
	tryonHandler := handler.NewTryonHandler(tryonService, validate)

	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		BodyLimit:    50 * 1024 * 1024, // 50MB, base64 photos are large
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${reqHeaders}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(middleware.CORS())

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"storage":   storageClient != nil,
				"database":  store != nil,
				"search":    searchClient.IsConfigured(),
				"replicate": replicateClient.IsConfigured(),
			},
		})
	})

	// API routes
	api := app.Group("/api")

	api.Post("/search", rateLimiter.SearchLimit(cfg.RateLimit.SearchPerMin), searchHandler.Search)
	api.Get("/search/history", searchHandler.History)
	api.All("/search", methodNotAllowed)

	api.Post("/tryon", rateLimiter.TryonLimit(cfg.RateLimit.TryonPerMin), tryonHandler.TryOn)
	api.Get("/tryon/history", tryonHandler.History)
	api.All("/tryon", methodNotAllowed)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// methodNotAllowed rejects every method the POST endpoints do not serve
// (OPTIONS is answered earlier by the CORS middleware).
func methodNotAllowed(c *fiber.Ctx) error {
	return fiber.ErrMethodNotAllowed
}

// errorHandler converts unhandled errors into the flat {"error": ...}
// envelope: fiber errors keep their status (404, 405), everything else is a 500.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(response.ErrorResponse{Error: message})
}
