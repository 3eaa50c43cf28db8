// Package main runs the background worker: notification dispatch and reminder scans.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-booking/backend/config"
	"github.com/aura-booking/backend/internal/appointments"
	"github.com/aura-booking/backend/internal/messaging"
	"github.com/aura-booking/backend/internal/organizations"
	"github.com/aura-booking/backend/internal/worker"
	"github.com/aura-booking/backend/pkg/database"
	"github.com/aura-booking/backend/pkg/queue"
	"github.com/aura-booking/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	apptRepo := appointments.NewRepository(pool)
	messageRepo := messaging.NewRepository(pool)
	orgRepo := organizations.NewRepository(pool, rdb.Client, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	sender := messaging.NewProviderSender(cfg.Twilio, cfg.Email, logger)

	w := worker.New(jobQueue, apptRepo, messageRepo, orgRepo, sender, cfg.Reminders, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
