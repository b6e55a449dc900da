package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/ingest"
	"catalog-service/internal/repository"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// The alias table is fixed at compile time; refuse to start on a bad one.
	if err := ingest.ValidateAliasTable(); err != nil {
		log.Fatal("Invalid field alias table:", err)
	}

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis client for cache invalidation after inserts
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (cache invalidation disabled)", err)
	}
	pingCancel()

	productsRepo := repository.NewProductsRepository(db, redisClient)

	// Connect to NATS; the worker is useless without the queue
	nc, err := events.Connect(cfg.NATSURL, "catalog-service-worker", logger)
	if err != nil {
		log.Fatal("Failed to connect to NATS:", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		log.Fatal("Failed to initialize JetStream:", err)
	}

	setupCtx, setupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := events.EnsureBulkStream(setupCtx, js, cfg.BulkQueueStream, cfg.BulkQueueSubject); err != nil {
		setupCancel()
		log.Fatal("Failed to ensure bulk stream:", err)
	}

	consumer, err := js.CreateOrUpdateConsumer(setupCtx, cfg.BulkQueueStream, jetstream.ConsumerConfig{
		Durable:       cfg.BulkQueueConsumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: cfg.BulkQueueSubject,
	})
	setupCancel()
	if err != nil {
		log.Fatal("Failed to create consumer:", err)
	}

	worker := ingest.NewWorker(consumer, productsRepo, logger, ingest.WorkerConfig{
		FetchBatch: cfg.BulkFetchBatch,
		FetchWait:  cfg.BulkFetchWait,
	})

	// Run until interrupted; in-flight messages finish before exit
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := worker.Run(ctx); err != nil {
		log.Fatal("Worker stopped with error:", err)
	}
	log.Println("Catalog ingestion worker stopped")
}
