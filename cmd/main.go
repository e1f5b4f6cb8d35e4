/**
 * @description
 * This is the main entry point for the dashboard-service. Its responsibility
 * is to initialize all necessary components and start the HTTP server the
 * wallet dashboard talks to.
 *
 * Key features:
 * - Loads application configuration from environment variables.
 * - Establishes a connection pool to PostgreSQL for session persistence.
 * - Initializes the wallet service client and the event producer.
 * - Wires up the core application logic (auth flows, rate cache, operation
 *   dispatcher) with its dependencies.
 * - Starts the cron scheduler and implements graceful shutdown.
 *
 * @dependencies
 * - The service's internal packages for config, app logic, storage, and external clients.
 * - pgxpool for database connection, godotenv for local config, and rabbitmq for messaging.
 */
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/bpay/dashboard-service/internal/api"
	"github.com/bpay/dashboard-service/internal/app"
	"github.com/bpay/dashboard-service/internal/config"
	"github.com/bpay/dashboard-service/internal/store"
	"github.com/bpay/dashboard-service/pkg/rabbitmq"
	"github.com/bpay/dashboard-service/pkg/walletclient"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load application configuration.
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Session persistence is optional: without a database the credential
	// simply does not survive a restart.
	var sessionRepo app.SessionRepository
	if cfg.DatabaseURL != "" {
		dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Unable to parse database URL: %v\n", err)
		}
		dbConfig.MaxConns = 10
		dbConfig.MaxConnLifetime = 30 * time.Minute
		dbConfig.MaxConnIdleTime = 5 * time.Minute

		dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
		if err != nil {
			log.Fatalf("Unable to connect to database: %v\n", err)
		}
		defer dbpool.Close()
		log.Println("Database connection established")

		sessionRepo = store.NewPostgresSessionRepository(dbpool)
	} else {
		log.Println("DATABASE_URL not set, sessions will not survive restarts")
	}

	// Event producer with a no-op fallback when the broker is down.
	var publisher rabbitmq.Publisher
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			log.Printf("Failed to connect to RabbitMQ: %v. Using fallback publisher.", err)
			publisher = &rabbitmq.EventProducerFallback{}
		} else {
			publisher = producer
		}
	} else {
		publisher = &rabbitmq.EventProducerFallback{}
	}
	defer publisher.Close()

	// Set up dependencies.
	client := walletclient.NewClient(cfg.WalletAPIBaseURL)
	sessions := app.NewSessionStore(sessionRepo, logger)
	sessions.Restore(context.Background())

	rates := app.NewRateCache(client, logger)
	flows := app.NewFlowManager(client, sessions, logger)
	dispatcher := app.NewDispatcher(client, sessions, publisher, logger)

	// Start the background jobs.
	maxFlowIdle := time.Duration(cfg.FlowMaxIdleMinutes) * time.Minute
	jobs := app.NewJobs(rates, sessions, flows, logger, maxFlowIdle)
	scheduler := app.NewScheduler(jobs, logger, cfg)
	scheduler.Start()

	// Setup and start HTTP server.
	router := api.NewRouter(cfg, flows, client, dispatcher, rates, sessions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	log.Println("Dashboard service is running.")

	// Wait for termination signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down dashboard-service...")

	// Create a context with a timeout for shutdown.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop the scheduler and wait for running jobs.
	<-scheduler.Stop().Done()

	// Shutdown the HTTP server.
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
