package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DRSN-tech/commerce-backend/internal/broker"
	config "github.com/DRSN-tech/commerce-backend/internal/cfg"
	"github.com/DRSN-tech/commerce-backend/internal/gateway"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RunGateway собирает и запускает HTTP-шлюз. Единственный компонент
// с внешним HTTP-портом; с сервисами общается только через брокер.
func RunGateway() {
	logger := logger.NewSlogLogger()

	cfg, err := config.Load("gateway")
	if err != nil {
		logger.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	replyTopic := "gateway.replies." + uuid.NewString()
	bus := broker.NewKafkaBus(cfg.Kafka, logger, replyTopic)

	catalogClient := gateway.NewCatalogClient(bus, cfg.Rpc.RequestTimeout, logger)
	inventoryClient := gateway.NewInventoryClient(bus, cfg.Rpc.RequestTimeout, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go bus.ServeReplies(ctx)

	r := chi.NewRouter()
	router := gateway.NewRouter(r, logger)
	router.Init(catalogClient, inventoryClient)

	httpSrv := gateway.NewServer(r, cfg.Http)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server started on port %s", cfg.Http.Port)
		if err := httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	var appErr error
	select {
	case appErr = <-errCh:
		logger.Errorf(appErr, "HTTP server fatal error")
	case <-ctx.Done():
		logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Stop(shutdownCtx); err != nil {
		logger.Errorf(err, "HTTP server shutdown error")
	} else {
		logger.Infof("HTTP server stopped")
	}

	if err := bus.Close(shutdownCtx); err != nil {
		logger.Warnf("broker close error: %v", err)
	}

	logger.Infof("gateway shutdown complete")
	if appErr != nil {
		os.Exit(1)
	}
}
