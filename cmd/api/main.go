package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/api/routes"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/orders"
	paymentsvc "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/payments"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/payments/txid"
	midtranswebhook "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/webhooks/midtrans"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/clock"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/config"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/db"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/db/models"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/logger"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/metrics"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/midtrans"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if cfg.FeatureFlags.AutoMigrate {
		if err := dbClient.DB().AutoMigrate(&models.Order{}, &models.OrderItem{}); err != nil {
			logg.Error(context.Background(), "failed to auto-migrate schema", err)
			os.Exit(1)
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, create rate limiting disabled")
	}

	midtransClient, err := midtrans.NewClient(context.Background(), cfg.Midtrans, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create midtrans client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	policy, err := paymentsvc.NewFeePolicy(cfg.Payments)
	if err != nil {
		logg.Error(context.Background(), "failed to build fee policy", err)
		os.Exit(1)
	}
	txids, err := txid.NewBuilder(cfg.Payments.TransactionPrefix, cfg.Payments.SnowflakeNode)
	if err != nil {
		logg.Error(context.Background(), "failed to build transaction id builder", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB(), clock.System())

	createService, err := paymentsvc.NewCreateService(
		ordersRepo, midtransClient, policy, txids, clock.System(), logg, paymentMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	webhookService, err := midtranswebhook.NewService(midtranswebhook.ServiceParams{
		OrderRepo: ordersRepo,
		ServerKey: cfg.Midtrans.ServerKey,
		TxIDs:     txids,
		Logger:    logg,
		Metrics:   paymentMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, registry, createService, webhookService),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining requests")
		drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
