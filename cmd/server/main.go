package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/leasehub/lease-engine/internal/config"
	"github.com/leasehub/lease-engine/internal/handler"
	"github.com/leasehub/lease-engine/internal/notify"
	"github.com/leasehub/lease-engine/internal/repository"
	"github.com/leasehub/lease-engine/internal/service"
	"github.com/leasehub/lease-engine/pkg/response"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	store := repository.NewStore(db)
	locker := service.NewRedisInvoiceLocker(redisClient)

	var notifier notify.Notifier = notify.NewAsynqNotifier(redisClient)
	if cfg.IsDevelopment() {
		notifier = notify.LogNotifier{}
	}

	leaseService := service.NewLeaseService(store, notifier, cfg)
	billingService := service.NewBillingService(store, leaseService, locker, notifier, cfg)

	billingHandler := handler.NewBillingHandler(billingService)
	applicationHandler := handler.NewApplicationHandler(leaseService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	router := setupRoutes(billingHandler, applicationHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      response.LoggingMiddleware(response.CORSMiddleware(router)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(billingHandler *handler.BillingHandler, applicationHandler *handler.ApplicationHandler, healthHandler *handler.HealthHandler) *mux.Router {
	router := mux.NewRouter()

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/applications", applicationHandler.Submit).Methods("POST")
	api.HandleFunc("/applications/{applicationId}/decision", applicationHandler.Decide).Methods("POST")
	api.HandleFunc("/applications/{applicationId}/cancel", applicationHandler.Cancel).Methods("POST")

	api.HandleFunc("/payments/confirm", billingHandler.ConfirmPayment).Methods("POST")
	api.HandleFunc("/tenants/{tenantId}/ledger", billingHandler.TenantLedger).Methods("GET")

	// Gateway callbacks live outside the versioned API surface
	router.HandleFunc("/webhooks/payments", billingHandler.PaymentWebhook).Methods("POST")

	return router
}
