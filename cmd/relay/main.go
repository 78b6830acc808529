package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/config"
	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/kafka"
	"github.com/akulagin/fulfillment/internal/logger"
	"github.com/akulagin/fulfillment/internal/repository/postgresql"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New()
	defer func() { _ = log.Sync() }()

	cfg := config.Load()

	database, err := db.NewDb(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.GetPool().Close()

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer func() {
		if err := producer.Close(); err != nil {
			log.Error("failed to close kafka producer", zap.Error(err))
		}
	}()

	publisher := kafka.NewPublisher(database, postgresql.NewOutboxTaskRepo(), producer, kafka.PublisherConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxAttempts:  cfg.OutboxMaxAttempts,
	}, log)

	go publisher.Run(ctx)

	<-ctx.Done()
	log.Info("shutting down outbox relay")
	publisher.Stop()
	log.Info("outbox relay stopped")
}
