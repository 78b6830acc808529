package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/cache"
	"github.com/akulagin/fulfillment/internal/config"
	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/delivery"
	"github.com/akulagin/fulfillment/internal/events"
	"github.com/akulagin/fulfillment/internal/idempotency"
	"github.com/akulagin/fulfillment/internal/inventory"
	"github.com/akulagin/fulfillment/internal/kafka"
	"github.com/akulagin/fulfillment/internal/logger"
	"github.com/akulagin/fulfillment/internal/ordering"
	"github.com/akulagin/fulfillment/internal/payment"
	"github.com/akulagin/fulfillment/internal/repository/postgresql"
)

const consumerGroup = "fulfillment-worker"

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

	orderRepo := postgresql.NewOrderRepo(database)
	shipmentRepo := postgresql.NewShipmentRepo(database)
	shipperRepo := postgresql.NewShipperRepo(database)
	warehouseRepo := postgresql.NewWarehouseRepo(database)
	stockRepo := postgresql.NewStockRepo(database)
	outboxRepo := postgresql.NewOutboxTaskRepo()
	idempotencyRepo := postgresql.NewIdempotencyRepo()

	dispatcher := idempotency.NewDispatcher(database, idempotencyRepo, log)

	orderCache := cache.NewOrderCache(orderRepo, log)
	if err := orderCache.LoadInitialData(ctx); err != nil {
		log.Fatal("failed to warm order cache", zap.Error(err))
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer func() {
		if err := producer.Close(); err != nil {
			log.Error("failed to close kafka producer", zap.Error(err))
		}
	}()

	orderingService := ordering.NewService(orderRepo, outboxRepo, dispatcher, orderCache, log)
	deliveryService := delivery.NewService(shipmentRepo, shipperRepo, warehouseRepo, outboxRepo, dispatcher, log)

	gateway := payment.NewStubGateway(log)
	orderingConsumer := ordering.NewConsumer(orderingService, gateway, log)
	deliveryConsumer := delivery.NewConsumer(deliveryService, log)
	validator := inventory.NewValidator(stockRepo, producer, log)

	router := kafka.NewRouter(cfg.KafkaBrokers, consumerGroup, log)
	router.Handle(events.TopicOrderAwaitingValidation, validator.HandleOrderAwaitingValidation)
	router.Handle(events.TopicStockConfirmed, orderingConsumer.HandleStockConfirmed)
	router.Handle(events.TopicStockRejected, orderingConsumer.HandleStockRejected)
	router.Handle(events.TopicOrderPaid, deliveryConsumer.HandleOrderPaid)
	router.Handle(events.TopicShipmentCompleted, orderingConsumer.HandleShipmentCompleted)

	log.Info("worker starting", zap.Strings("brokers", cfg.KafkaBrokers))
	if err := router.Run(ctx); err != nil {
		log.Fatal("worker failed", zap.Error(err))
	}
	log.Info("worker stopped")
}
