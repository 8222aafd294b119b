package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/YelzhanWeb/restopos/internal/adapter/logger"
	"github.com/YelzhanWeb/restopos/internal/adapter/metrics"
	"github.com/YelzhanWeb/restopos/internal/adapter/postgres"
	"github.com/YelzhanWeb/restopos/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/restopos/internal/adapter/storeclient"
	"github.com/YelzhanWeb/restopos/internal/app/checkout"
	"github.com/YelzhanWeb/restopos/internal/app/store"
	"github.com/YelzhanWeb/restopos/internal/app/view"
	"github.com/YelzhanWeb/restopos/internal/config"
	"github.com/YelzhanWeb/restopos/internal/lifecycle"

	amqpAdapter "github.com/YelzhanWeb/restopos/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/restopos/internal/adapter/http"
)

func main() {
	mode := flag.String("mode", "", "Service mode: order-store, cashier, kitchen-display, admin, notification-subscriber")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "HTTP port override (order-store)")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}

	ctx := context.Background()
	lgr := logger.New(*mode)

	switch *mode {
	case "order-store":
		runOrderStore(ctx, cfg, lgr)

	case "cashier":
		runCashier(ctx, cfg, lgr)

	case "kitchen-display":
		runView(ctx, cfg, lgr, "kitchen-display", view.KitchenFilter(), cfg.Polling.KitchenIntervalSec)

	case "admin":
		runView(ctx, cfg, lgr, "admin", view.AdminFilter(), cfg.Polling.AdminIntervalSec)

	case "notification-subscriber":
		runNotificationSubscriber(ctx, cfg, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

func runOrderStore(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	lgr.Info("db_connected", "Connected to PostgreSQL database", "", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	orderRepo := postgres.NewOrderRepository(db)
	couponRepo := postgres.NewCouponRepository(db)
	publisher := rabbitmq.NewPublisher(mqConn)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	storeService := store.NewService(
		orderRepo, couponRepo, publisher, lgr, m,
		cfg.Fees.Delivery.Rule(), cfg.Fees.Packaging.Rule(),
	)

	orderHandler := httpAdapter.NewOrderHandler(storeService, lgr)
	couponHandler := httpAdapter.NewCouponHandler(storeService, lgr)

	mux := http.NewServeMux()
	mux.HandleFunc("/orders", orderHandler.HandleOrders)
	mux.HandleFunc("/orders/", orderHandler.HandleOrders)
	mux.HandleFunc("/coupons/validate", couponHandler.ValidateCoupon)
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	handler := httpAdapter.LoggingMiddleware(lgr)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Order store started on port %d", cfg.HTTP.Port), "", map[string]interface{}{
		"port": cfg.HTTP.Port,
	})

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down order store", "", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "", nil, err)
	}
}

// runCashier is runView plus the checkout endpoints: the cashier station
// polls the store like every other view, and also prices and submits carts.
func runCashier(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	client := storeclient.New(cfg.Store.BaseURL)
	viewSvc := view.NewService("cashier", client, view.CashierFilter(),
		time.Duration(cfg.Polling.CashierIntervalSec)*time.Second, lgr)
	checkoutSvc := checkout.NewService(client, lgr, cfg.Fees.Delivery.Rule(), cfg.Fees.Packaging.Rule())

	checkoutHandler := httpAdapter.NewCheckoutHandler(checkoutSvc, lgr)

	mux := http.NewServeMux()
	mux.HandleFunc("/checkout", checkoutHandler.Checkout)
	mux.HandleFunc("/checkout/preview", checkoutHandler.Preview)

	handler := httpAdapter.LoggingMiddleware(lgr)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.CashierPort),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down cashier", "", nil)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "", nil, err)
		}
		cancel()
	}()

	go func() {
		if err := viewSvc.Run(runCtx); err != nil && err != context.Canceled {
			lgr.Error("poller_error", "Polling loop error", "", nil, err)
		}
	}()

	lgr.Info("service_started", fmt.Sprintf("Cashier started on port %d", cfg.HTTP.CashierPort), "", map[string]interface{}{
		"port": cfg.HTTP.CashierPort,
	})

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "", nil, err)
	}
}

func runView(ctx context.Context, cfg *config.Config, lgr logger.Logger, name string, filter lifecycle.Filter, intervalSec int) {
	client := storeclient.New(cfg.Store.BaseURL)
	svc := view.NewService(name, client, filter, time.Duration(intervalSec)*time.Second, lgr)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", fmt.Sprintf("Shutting down %s view", name), "", nil)
		cancel()
	}()

	if err := svc.Run(runCtx); err != nil && err != context.Canceled {
		lgr.Error("poller_error", "Polling loop error", "", nil, err)
	}
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	consumer := rabbitmq.NewConsumer(mqConn)
	handler := amqpAdapter.NewEventHandler(lgr)

	lgr.Info("service_started", "Notification subscriber started", "", nil)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", "Shutting down notification subscriber", "", nil)
		cancel()
	}()

	if err := consumer.ConsumeOrderEvents(runCtx, handler.HandleEvent); err != nil && err != context.Canceled {
		lgr.Error("consumer_error", "Error consuming events", "", nil, err)
	}
}
