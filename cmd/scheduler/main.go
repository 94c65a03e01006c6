package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fleetcab/billing-engine/internal/config"
	"github.com/fleetcab/billing-engine/internal/domain"
	"github.com/fleetcab/billing-engine/internal/ledger"
	"github.com/fleetcab/billing-engine/internal/logger"
	"github.com/fleetcab/billing-engine/internal/repository"
	"github.com/fleetcab/billing-engine/internal/service"
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

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	obligationRepo := repository.NewObligationRepository(db)
	installmentRepo := repository.NewInstallmentRepository(db)
	ledgerClient := ledger.NewClient(cfg.Ledger.BaseURL, cfg.GetLedgerTimeout(), zapLog)
	postingService := service.NewPostingService(obligationRepo, installmentRepo, ledgerClient, redisClient, cfg, zapLog)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		zapLog.Fatal("invalid scheduler timezone", zap.Error(err))
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	_, err = c.AddFunc(cfg.Scheduler.PostingCron, func() {
		runPostingWindow(postingService, zapLog)
	})
	if err != nil {
		zapLog.Fatal("failed to schedule posting job", zap.Error(err))
	}

	c.Start()
	zapLog.Info("scheduler started", zap.String("posting_cron", cfg.Scheduler.PostingCron))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("shutting down scheduler")
	<-c.Stop().Done()
	zapLog.Info("scheduler stopped")
}

// runPostingWindow posts every installment that is currently due. An
// interrupted run is safe: unprocessed installments stay scheduled and are
// picked up by the next window.
func runPostingWindow(postingService *service.PostingService, zapLog *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := postingService.PostInstallments(ctx, &domain.PostInstallmentsRequest{PostAllDue: true})
	if err != nil {
		zapLog.Error("posting window failed", zap.Error(err))
		return
	}

	zapLog.Info("posting window complete",
		zap.Int("total", result.TotalProcessed),
		zap.Int("succeeded", result.SuccessfulPosts),
		zap.Int("failed", result.FailedPosts),
	)
}
