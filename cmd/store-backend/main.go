package main

import (
	"context"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/akseline/store-backend-go/internal/cart"
	"github.com/akseline/store-backend-go/internal/catalog"
	"github.com/akseline/store-backend-go/internal/config"
	"github.com/akseline/store-backend-go/internal/db"
	"github.com/akseline/store-backend-go/internal/events"
	"github.com/akseline/store-backend-go/internal/http"
	"github.com/akseline/store-backend-go/internal/order"
	"github.com/akseline/store-backend-go/internal/payment"
	"github.com/akseline/store-backend-go/internal/payment/razorpay"
	"github.com/akseline/store-backend-go/internal/shipment"
	"github.com/akseline/store-backend-go/internal/shipment/delhivery"
	"github.com/akseline/store-backend-go/internal/upstream"
	"github.com/akseline/store-backend-go/internal/wishlist"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[store-backend] ", log.LstdFlags|log.Lshortfile)

	// DB
	if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}
	database := db.MustOpen(cfg.DatabaseDSN)
	defer database.Close()

	// Redis
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	// RabbitMQ
	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		logger.Fatalf("dial rabbitmq: %v", err)
	}
	defer rabbitConn.Close()

	publisher, err := events.NewPublisher(rabbitConn)
	if err != nil {
		logger.Fatalf("events publisher: %v", err)
	}
	defer publisher.Close()

	// Gateways
	httpClient := &nethttp.Client{Timeout: cfg.UpstreamTimeout}
	gateway := razorpay.NewClient(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret, httpClient)
	carrier := delhivery.NewClient(cfg.DelhiveryBaseURL, cfg.DelhiveryAPIToken, httpClient)
	retry := upstream.DefaultPolicy()

	// Repositories and services
	products := catalog.NewRepository(database)
	carts := cart.NewService(database, cart.NewRepository(database), products, cart.NewRedisCache(redisClient), logger)
	orderRepo := order.NewRepository(database)
	workflow := order.NewWorkflow(database, orderRepo, carts, publisher, logger)
	verifier := payment.NewVerifier(database, orderRepo, payment.NewRepository(database), gateway, retry, publisher, logger)
	shipRepo := shipment.NewRepository(database)
	issuer := shipment.NewIssuer(database, orderRepo, shipRepo, carrier, retry, publisher, logger)
	wishlists := wishlist.NewService(wishlist.NewRepository(database), products)

	router := http.NewRouter(http.Deps{
		Products:         products,
		Carts:            carts,
		Orders:           workflow,
		OrderRepo:        orderRepo,
		Payments:         verifier,
		Shipments:        issuer,
		ShipRepo:         shipRepo,
		Wishlists:        wishlists,
		Logger:           logger,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	srv := &nethttp.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Printf("store-backend listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
