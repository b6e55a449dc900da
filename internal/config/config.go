package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"catalog-service/internal/models"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisURL string

	// Server
	Port           string
	Environment    string
	AllowedOrigins []string

	// JWT
	JWTSecret string
	JWTTTL    time.Duration

	// Initial admin account, seeded on startup when set
	InitialAdminUsername string
	InitialAdminEmail    string
	InitialAdminPassword string

	// Media storage
	StorageBackend string // "local" or "s3"
	MediaRoot      string
	MediaBaseURL   string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string

	// Bulk ingestion queue
	NATSURL           string
	BulkQueueStream   string
	BulkQueueSubject  string
	BulkQueueConsumer string
	BulkFetchBatch    int
	BulkFetchWait     time.Duration

	// Pagination
	DefaultPageSize int
	MaxPageSize     int
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	defaultPageSize, _ := strconv.Atoi(getEnv("DEFAULT_PAGE_SIZE", "20"))
	maxPageSize, _ := strconv.Atoi(getEnv("MAX_PAGE_SIZE", "100"))
	jwtTTL, _ := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	fetchBatch, _ := strconv.Atoi(getEnv("BULK_FETCH_BATCH", "10"))
	fetchWait, _ := time.ParseDuration(getEnv("BULK_FETCH_WAIT", "5s"))

	return &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "catalog_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "")),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "your-secret-key"),
		JWTTTL:    jwtTTL,

		InitialAdminUsername: getEnv("INITIAL_ADMIN_USERNAME", ""),
		InitialAdminEmail:    getEnv("INITIAL_ADMIN_EMAIL", ""),
		InitialAdminPassword: getEnv("INITIAL_ADMIN_PASSWORD", ""),

		// Media storage
		StorageBackend: getEnv("STORAGE_BACKEND", "local"),
		MediaRoot:      getEnv("MEDIA_ROOT", "./media"),
		MediaBaseURL:   getEnv("MEDIA_BASE_URL", "/media"),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),

		// Bulk ingestion queue
		NATSURL:           getEnv("NATS_URL", "nats://localhost:4222"),
		BulkQueueStream:   getEnv("BULK_QUEUE_STREAM", "PRODUCT_IMPORTS"),
		BulkQueueSubject:  getEnv("BULK_QUEUE_SUBJECT", "product.bulk.submitted"),
		BulkQueueConsumer: getEnv("BULK_QUEUE_CONSUMER", "bulk-ingest-worker"),
		BulkFetchBatch:    fetchBatch,
		BulkFetchWait:     fetchWait,

		// Pagination
		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate models to keep schema up to date
	// This will add missing columns but won't delete existing columns
	log.Println("Running auto-migrations...")
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
	); err != nil {
		return nil, fmt.Errorf("failed to run auto-migrations: %w", err)
	}
	log.Println("Auto-migrations completed successfully")

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
