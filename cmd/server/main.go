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
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fleetcab/billing-engine/internal/config"
	"github.com/fleetcab/billing-engine/internal/handler"
	"github.com/fleetcab/billing-engine/internal/ledger"
	"github.com/fleetcab/billing-engine/internal/logger"
	"github.com/fleetcab/billing-engine/internal/repository"
	"github.com/fleetcab/billing-engine/internal/service"
	"github.com/fleetcab/billing-engine/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLog, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zapLog.Sync()

	db, err := initDB(cfg)
	if err != nil {
		zapLog.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	matrix, err := cfg.Matrix()
	if err != nil {
		zapLog.Fatal("failed to build repayment matrix", zap.Error(err))
	}

	// Repositories
	obligationRepo := repository.NewObligationRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)

	// External ledger
	ledgerClient := ledger.NewClient(cfg.Ledger.BaseURL, cfg.GetLedgerTimeout(), zapLog)

	// Services
	scheduleService := service.NewScheduleService(obligationRepo, matrix, cfg, zapLog)
	postingService := service.NewPostingService(obligationRepo, installmentRepo, ledgerClient, redisClient, cfg, zapLog)
	lifecycleService := service.NewLifecycleService(obligationRepo, installmentRepo, zapLog)

	// Handlers
	billingHandler := handler.NewBillingHandler(scheduleService, postingService, obligationRepo, installmentRepo, zapLog)
	ledgerHandler := handler.NewLedgerHandler(lifecycleService, zapLog)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	router := setupRoutes(billingHandler, ledgerHandler, healthHandler, zapLog)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		zapLog.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		zapLog.Fatal("server forced to shutdown", zap.Error(err))
	}

	zapLog.Info("server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	billingHandler *handler.BillingHandler,
	ledgerHandler *handler.LedgerHandler,
	healthHandler *handler.HealthHandler,
	zapLog *zap.Logger,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.Logging(zapLog))

	// Health checks
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/obligations", billingHandler.CreateObligation).Methods("POST")
	api.HandleFunc("/obligations/{obligationId}", billingHandler.GetObligation).Methods("GET")
	api.HandleFunc("/obligations/{obligationId}/schedule", billingHandler.GetSchedule).Methods("GET")
	api.HandleFunc("/installments/post", billingHandler.PostInstallments).Methods("POST")

	// Ledger callback hook, not exposed through the public gateway
	router.HandleFunc("/internal/ledger/events", ledgerHandler.HandleEvent).Methods("POST")

	return router
}
