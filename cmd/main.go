/**
 * @description
 * This is the main entry point for the pricing service.
 * It initializes and wires together all the components of the application:
 * configuration, database connection, the pricing engine and loyalty rules,
 * the RabbitMQ producer and consumer, the cron scheduler, and the HTTP
 * router. Finally, it starts the HTTP server to listen for incoming requests.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/kandjiabdou/yessal-sub001/internal/api"
	"github.com/kandjiabdou/yessal-sub001/internal/app"
	"github.com/kandjiabdou/yessal-sub001/internal/config"
	"github.com/kandjiabdou/yessal-sub001/internal/pricing"
	"github.com/kandjiabdou/yessal-sub001/internal/store"
	"github.com/kandjiabdou/yessal-sub001/pkg/rabbitmq"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env in local development; in deployment the environment is set
	// by the platform.
	_ = godotenv.Load()

	// Load application configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up channel to listen for OS signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Establish connection to the PostgreSQL database with connection pool configuration
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = 50
	poolConfig.MinConns = 10
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Register shopspring decimal support so NUMERIC weights scan natively.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Build the pure pricing core from configuration.
	engine, err := pricing.NewEngine(cfg.Tariff())
	if err != nil {
		logger.Error("invalid pricing tariff", "error", err)
		os.Exit(1)
	}

	// Connect the event producer; fall back to a no-op publisher so pricing
	// keeps working when RabbitMQ is down.
	var publisher rabbitmq.Publisher
	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		logger.Warn("failed to connect RabbitMQ producer, using fallback", "error", err)
		publisher = &rabbitmq.EventProducerFallback{}
	} else {
		publisher = producer
	}
	defer publisher.Close()

	// Initialize application layers
	repository := store.NewRepository(dbpool)
	service := app.NewService(repository, engine, cfg.LoyaltyRules(), publisher)
	handler := api.NewHandler(service)
	router := api.NewRouter(handler, cfg.InternalAPIKey)

	// Consume delivery confirmations from the logistics app.
	if cfg.RabbitMQURL != "" {
		consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
		if err != nil {
			logger.Warn("failed to connect RabbitMQ consumer; relying on the reconciliation job", "error", err)
		} else {
			defer consumer.Close()
			deliveryHandler := app.NewDeliveryEventHandler(service)
			go func() {
				err := consumer.Consume(app.EventsExchange, app.DeliveredQueue, app.DeliveredRoutingKey, deliveryHandler.HandleOrderDelivered)
				if err != nil {
					logger.Error("delivery consumer stopped", "error", err)
				}
			}()
			logger.Info("delivery event consumer started", "queue", app.DeliveredQueue)
		}
	}

	// Start the accrual reconciliation scheduler in the background.
	jobs := app.NewJobs(service, logger, cfg.AccrualReconcileBatch)
	scheduler := app.NewScheduler(jobs, logger, cfg.AccrualReconcileSchedule)
	scheduler.Start()
	logger.Info("scheduler started")

	// Configure and start the HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for an OS signal
	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	// Stop the scheduler and wait for running jobs.
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	// Create a context with a timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Attempt to gracefully shut down the server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
