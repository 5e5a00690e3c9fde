package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DRSN-tech/commerce-backend/internal/broker"
	"github.com/DRSN-tech/commerce-backend/internal/catalog"
	config "github.com/DRSN-tech/commerce-backend/internal/cfg"
	"github.com/DRSN-tech/commerce-backend/internal/infrastructure/outbox"
	"github.com/DRSN-tech/commerce-backend/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/commerce-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/commerce-backend/internal/repository/redis"
	redisConv "github.com/DRSN-tech/commerce-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/commerce-backend/pkg/clients"
	"github.com/DRSN-tech/commerce-backend/pkg/closer"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/google/uuid"
)

// RunCatalog собирает и запускает сервис каталога: consumer rpc-топика,
// подписку на inventory-события и outbox-воркер.
func RunCatalog() {
	logger := logger.NewSlogLogger()

	cfg, err := config.Load("catalog-service")
	if err != nil {
		logger.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	db, err := initPGDB(logger, cfg)
	if err != nil {
		logger.Errorf(err, "failed to initialize database")
		os.Exit(1)
	}

	prConv := pgdbConv.NewProductConverter()
	outboxConv := pgdbConv.NewOutboxEventConverter()
	cacheConv := redisConv.NewProductConverter()

	productRepo := pgdb.NewProductRepo(db.Pool, prConv)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool, outboxConv)

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		logger.Errorf(err, "failed to connect to redis")
		os.Exit(1)
	}
	cacheRepo := redis.NewCacheRepo(redisClient, cacheConv, cfg.Redis, logger)

	// Reply-топик уникален для инстанса: чужие ответы сюда не попадут.
	replyTopic := "catalog.replies." + uuid.NewString()
	bus := broker.NewKafkaBus(cfg.Kafka, logger, replyTopic)

	inventoryClient := catalog.NewBrokerInventoryClient(bus, cfg.Rpc.RequestTimeout, logger)
	productUC := catalog.NewProductUC(productRepo, outboxRepo, cacheRepo, inventoryClient, db.Pool, logger)

	disp := broker.NewDispatcher(bus, logger)
	handler := catalog.NewHandler(productUC, logger)
	handler.Register(disp)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go bus.ServeReplies(ctx)
	go bus.Consume(ctx, broker.TopicCatalogRPC, disp)
	go bus.Consume(ctx, broker.TopicInventoryEvents, disp)

	worker := outbox.NewWorker(outboxRepo, logger, bus, db.Dsn)
	worker.Start(ctx)

	// LIFO: первым закрывается bus, последней база.
	cl := closer.NewCloser(2 * time.Second)
	cl.Add(func(_ context.Context) error { db.Close(); return nil })
	cl.Add(func(_ context.Context) error { return redisClient.Client.Close() })
	cl.Add(bus.Close)

	logger.Infof("catalog service started")
	<-ctx.Done()
	logger.Infof("Received shutdown signal, stopping gracefully...")

	worker.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := cl.Close(shutdownCtx); err != nil {
		logger.Warnf("shutdown finished with errors: %v", err)
	}

	logger.Infof("catalog service shutdown complete")
}
