package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DRSN-tech/commerce-backend/internal/broker"
	config "github.com/DRSN-tech/commerce-backend/internal/cfg"
	"github.com/DRSN-tech/commerce-backend/internal/inventory"
	"github.com/DRSN-tech/commerce-backend/internal/repository/pgdb"
	"github.com/DRSN-tech/commerce-backend/pkg/closer"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/google/uuid"
)

// RunInventory собирает и запускает сервис склада: consumer rpc-топика
// и подписку на события каталога.
func RunInventory() {
	logger := logger.NewSlogLogger()

	cfg, err := config.Load("inventory-service")
	if err != nil {
		logger.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	db, err := initPGDB(logger, cfg)
	if err != nil {
		logger.Errorf(err, "failed to initialize database")
		os.Exit(1)
	}

	inventoryRepo := pgdb.NewInventoryRepo(db.Pool)

	replyTopic := "inventory.replies." + uuid.NewString()
	bus := broker.NewKafkaBus(cfg.Kafka, logger, replyTopic)

	publisher := inventory.NewBrokerEventPublisher(bus)
	inventoryUC := inventory.NewInventoryUC(inventoryRepo, publisher, logger)

	disp := broker.NewDispatcher(bus, logger)
	handler := inventory.NewHandler(inventoryUC, logger)
	handler.Register(disp)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go bus.Consume(ctx, broker.TopicInventoryRPC, disp)
	go bus.Consume(ctx, broker.TopicCatalogEvents, disp)

	cl := closer.NewCloser(2 * time.Second)
	cl.Add(func(_ context.Context) error { db.Close(); return nil })
	cl.Add(bus.Close)

	logger.Infof("inventory service started")
	<-ctx.Done()
	logger.Infof("Received shutdown signal, stopping gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := cl.Close(shutdownCtx); err != nil {
		logger.Warnf("shutdown finished with errors: %v", err)
	}

	logger.Infof("inventory service shutdown complete")
}
