package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/cocktail-api/internal/config"
	"github.com/flicky/cocktail-api/internal/events"
	"github.com/flicky/cocktail-api/internal/handler"
	"github.com/flicky/cocktail-api/internal/logging"
	"github.com/flicky/cocktail-api/internal/metrics"
	"github.com/flicky/cocktail-api/internal/middleware"
	"github.com/flicky/cocktail-api/internal/repository"
	"github.com/flicky/cocktail-api/internal/seed"
	"github.com/flicky/cocktail-api/internal/service"
	"github.com/flicky/cocktail-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("load config", "error", err)
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)
	gin.SetMode(cfg.Server.GinMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	if cfg.DB.AutoMigrate {
		if err := repository.RunMigrations(cfg.DB.DSN(), log); err != nil {
			log.Error("run migrations", "error", err)
			os.Exit(1)
		}
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	m := metrics.New()

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)

	if err := seed.New(userRepo, productRepo, cfg.Seed, log).Run(ctx); err != nil {
		log.Error("seed database", "error", err)
		os.Exit(1)
	}

	// RabbitMQ is optional: without it checkouts skip the OrderPlaced event
	// and no invoices are delivered.
	var (
		publisher     service.OrderPublisher
		amqpConn      *amqp.Connection
		invoiceWorker *worker.InvoiceWorker
	)
	if cfg.RabbitMQ.URL != "" {
		amqpConn, err = amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Error("connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer amqpConn.Close()

		pubCh, err := amqpConn.Channel()
		if err != nil {
			log.Error("open RabbitMQ channel", "error", err)
			os.Exit(1)
		}
		defer pubCh.Close()

		if err := events.SetupRabbitMQ(pubCh); err != nil {
			log.Error("setup RabbitMQ", "error", err)
			os.Exit(1)
		}
		publisher = events.NewPublisher(pubCh)

		consumeCh, err := amqpConn.Channel()
		if err != nil {
			log.Error("open RabbitMQ channel", "error", err)
			os.Exit(1)
		}
		defer consumeCh.Close()

		invoiceWorker = worker.NewInvoiceWorker(
			consumeCh, orderRepo, worker.NewRedisDeduper(redisClient),
			worker.LogMailer{Log: log}, m.InvoiceDeliveries, log,
		)
		if err := invoiceWorker.Start(ctx); err != nil {
			log.Error("start invoice worker", "error", err)
			os.Exit(1)
		}
		log.Info("connected to RabbitMQ")
	} else {
		log.Warn("RABBITMQ_URL is empty, order events and invoice delivery are disabled")
	}

	// Services
	authSvc := service.NewAuthService(userRepo, service.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		Expiry:   cfg.JWT.Expiration,
	})
	userSvc := service.NewUserService(userRepo)
	productSvc := service.NewProductService(productRepo, redisClient, cfg.Redis.ProductCacheTTL)
	cartSvc := service.NewCartService(cartRepo, productRepo)
	orderSvc := service.NewOrderService(orderRepo, cartRepo, userRepo, nil, publisher, m.Checkouts)

	var broker handler.BrokerConn
	if amqpConn != nil {
		broker = amqpConn
	}

	router := handler.NewRouter(handler.Router{
		Auth:    handler.NewAuthHandler(authSvc),
		User:    handler.NewUserHandler(userSvc),
		Product: handler.NewProductHandler(productSvc),
		Cart:    handler.NewCartHandler(cartSvc),
		Order:   handler.NewOrderHandler(orderSvc),
		Health:  handler.NewHealthHandler(dbPool, redisClient, broker),
		JWT: middleware.AuthConfig{
			Secret:   cfg.JWT.Secret,
			Issuer:   cfg.JWT.Issuer,
			Audience: cfg.JWT.Audience,
		},
		CORS:    cfg.CORS,
		Metrics: m,
		Log:     log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	if invoiceWorker != nil {
		invoiceWorker.Stop()
		time.Sleep(500 * time.Millisecond)
	}
	cancel()
	log.Info("server stopped")
}
