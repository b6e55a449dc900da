package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/middleware"
	"catalog-service/internal/repository"
	"catalog-service/internal/storage"
)

// @title Catalog Service API
// @version 1.0.0
// @description Product catalog management with asynchronous bulk ingestion

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repositories
	productsRepo := repository.NewProductsRepository(db, redisClient)
	categoriesRepo := repository.NewCategoriesRepository(db)
	usersRepo := repository.NewUsersRepository(db)

	// Seed the initial admin account when configured
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := usersRepo.EnsureAdminUser(seedCtx, cfg.InitialAdminUsername, cfg.InitialAdminEmail, cfg.InitialAdminPassword); err != nil {
		log.Printf("WARNING: Failed to seed admin user: %v", err)
	}
	seedCancel()

	// Initialize media storage
	var media storage.Store
	switch cfg.StorageBackend {
	case "s3":
		s3Ctx, s3Cancel := context.WithTimeout(context.Background(), 10*time.Second)
		media, err = storage.NewS3Store(s3Ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint, cfg.MediaBaseURL)
		s3Cancel()
		if err != nil {
			log.Fatal("Failed to initialize S3 storage:", err)
		}
		log.Println("✓ S3 media storage initialized")
	default:
		media, err = storage.NewLocalStore(cfg.MediaRoot, cfg.MediaBaseURL)
		if err != nil {
			log.Fatal("Failed to initialize local storage:", err)
		}
		log.Println("✓ Local media storage initialized")
	}

	// Initialize the bulk publisher only if NATS is reachable; the bulk
	// endpoints answer 503 without it, everything else keeps working.
	var bulkPublisher *events.BulkPublisher
	nc, err := events.Connect(cfg.NATSURL, "catalog-service-api", logger)
	if err != nil {
		log.Printf("WARNING: Failed to connect to NATS: %v (bulk ingestion disabled)", err)
	} else {
		js, err := jetstream.New(nc)
		if err != nil {
			log.Printf("WARNING: Failed to initialize JetStream: %v (bulk ingestion disabled)", err)
		} else {
			streamCtx, streamCancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := events.EnsureBulkStream(streamCtx, js, cfg.BulkQueueStream, cfg.BulkQueueSubject); err != nil {
				log.Printf("WARNING: Failed to ensure bulk stream: %v (bulk ingestion disabled)", err)
			} else {
				bulkPublisher = events.NewBulkPublisher(js, cfg.BulkQueueSubject, logger)
				log.Println("✓ Bulk publisher initialized (NATS connected)")
			}
			streamCancel()
		}
	}
	defer func() {
		if nc != nil {
			nc.Close()
		}
	}()

	// Initialize handlers
	productsHandler := handlers.NewProductsHandler(productsRepo, logger, cfg.DefaultPageSize, cfg.MaxPageSize)
	categoriesHandler := handlers.NewCategoriesHandler(categoriesRepo, media, logger)
	authHandler := handlers.NewAuthHandler(usersRepo, cfg.JWTSecret, cfg.JWTTTL, logger)
	// bulkPublisher stays nil when NATS is unavailable
	var publisher handlers.BatchPublisher
	if bulkPublisher != nil {
		publisher = bulkPublisher
	}
	bulkHandler := handlers.NewBulkHandler(publisher, logger)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add CORS middleware
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health check endpoints (no auth required)
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.ReadinessCheck)

	// Serve local media from the static route the store advertises
	if local, ok := media.(*storage.LocalStore); ok {
		router.Static(cfg.MediaBaseURL, local.Root())
	}

	// Authentication
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.GET("/me", middleware.AuthMiddleware(cfg.JWTSecret), authHandler.Me)
	}

	// Public catalog browsing
	public := router.Group("/api/v1")
	{
		public.GET("/products", productsHandler.ListProducts)
		public.GET("/products/:id", productsHandler.GetProduct)
		public.GET("/categories", categoriesHandler.ListCategories)
		public.GET("/categories/:id", categoriesHandler.GetCategory)
	}

	// Protected catalog management
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		products := api.Group("/products")
		{
			products.POST("", productsHandler.CreateProduct)
			products.PUT("/:id", productsHandler.UpdateProduct)
			products.DELETE("/:id", middleware.RequireRole("admin"), productsHandler.DeleteProduct)

			// Bulk ingestion
			products.POST("/bulk", bulkHandler.BulkCreateProducts)
			products.POST("/bulk/upload", bulkHandler.BulkUploadProducts)
			products.GET("/bulk/template", bulkHandler.DownloadTemplate)
		}

		categories := api.Group("/categories")
		{
			categories.POST("", categoriesHandler.CreateCategory)
			categories.PUT("/:id", categoriesHandler.UpdateCategory)
			categories.DELETE("/:id", middleware.RequireRole("admin"), categoriesHandler.DeleteCategory)
			categories.POST("/:id/picture", categoriesHandler.UploadCategoryPicture)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down catalog-service...")
	log.Println("Catalog service stopped")
}
