package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/akulagin/fulfillment/internal/cache"
	"github.com/akulagin/fulfillment/internal/config"
	"github.com/akulagin/fulfillment/internal/db"
	"github.com/akulagin/fulfillment/internal/delivery"
	"github.com/akulagin/fulfillment/internal/idempotency"
	"github.com/akulagin/fulfillment/internal/kafka"
	"github.com/akulagin/fulfillment/internal/logger"
	"github.com/akulagin/fulfillment/internal/ordering"
	"github.com/akulagin/fulfillment/internal/repository/postgresql"
	"github.com/akulagin/fulfillment/internal/server"
	"github.com/akulagin/fulfillment/internal/storage"
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

	orderRepo := postgresql.NewOrderRepo(database)
	shipmentRepo := postgresql.NewShipmentRepo(database)
	shipperRepo := postgresql.NewShipperRepo(database)
	warehouseRepo := postgresql.NewWarehouseRepo(database)
	outboxRepo := postgresql.NewOutboxTaskRepo()
	idempotencyRepo := postgresql.NewIdempotencyRepo()
	userRepo := postgresql.NewUserRepo(database)

	seedAdminUser(ctx, userRepo, log)

	dispatcher := idempotency.NewDispatcher(database, idempotencyRepo, log)

	orderCache := cache.NewOrderCache(orderRepo, log)
	if err := orderCache.LoadInitialData(ctx); err != nil {
		log.Fatal("failed to warm order cache", zap.Error(err))
	}

	orderingService := ordering.NewService(orderRepo, outboxRepo, dispatcher, orderCache, log)
	deliveryService := delivery.NewService(shipmentRepo, shipperRepo, warehouseRepo, outboxRepo, dispatcher, log)

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer func() {
		if err := producer.Close(); err != nil {
			log.Error("failed to close kafka producer", zap.Error(err))
		}
	}()

	audit := server.NewAuditManager(2, 5, 500*time.Millisecond, producer, log)

	srv := server.New(orderingService, deliveryService, userRepo, audit, log)
	if err := srv.Run(ctx, cfg.HTTPPort); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}

	log.Info("server stopped")
}

// seedAdminUser registers the bootstrap account from the environment so a
// fresh deployment has at least one identity to call the API with.
func seedAdminUser(ctx context.Context, users storage.UserRepository, log *zap.Logger) {
	username := os.Getenv("ADMIN_USER")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return
	}

	if err := users.CreateUser(ctx, username, password, "admin:"+username); err != nil {
		log.Warn("failed to seed admin user", zap.Error(err))
		return
	}
	log.Info("admin user ensured", zap.String("username", username))
}
