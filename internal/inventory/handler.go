package inventory

import (
	"context"

	"github.com/DRSN-tech/commerce-backend/internal/broker"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
)

// Handler привязывает каналы inventory к use case.
type Handler struct {
	uc     *InventoryUseCase
	logger logger.Logger
}

func NewHandler(uc *InventoryUseCase, logger logger.Logger) *Handler {
	return &Handler{uc: uc, logger: logger}
}

// Register собирает таблицу диспетчеризации inventory.
func (h *Handler) Register(d *broker.Dispatcher) {
	d.Handle(broker.ChannelAdjustStock, h.adjustStock)
	d.Handle(broker.ChannelDeleteByProduct, h.deleteByProduct)
	d.Handle(broker.EventProductCreated, h.onProductCreated)
}

func (h *Handler) adjustStock(ctx context.Context, env *broker.Envelope) (*broker.Envelope, error) {
	var req broker.AdjustStockRequest
	if err := env.Decode(&req); err != nil {
		return nil, err
	}

	quantity, err := h.uc.AdjustStock(ctx, req.ProductID, req.Delta)
	if err != nil {
		return nil, err
	}

	return broker.NewReply(env, broker.AdjustStockResponse{
		ProductID: req.ProductID,
		Quantity:  quantity,
	})
}

func (h *Handler) deleteByProduct(ctx context.Context, env *broker.Envelope) (*broker.Envelope, error) {
	var req broker.DeleteByProductRequest
	if err := env.Decode(&req); err != nil {
		return nil, err
	}

	if err := h.uc.DeleteByProduct(ctx, req.ProductID); err != nil {
		return nil, err
	}

	return broker.NewReply(env, broker.DeleteByProductResponse{Deleted: true})
}

func (h *Handler) onProductCreated(ctx context.Context, env *broker.Envelope) (*broker.Envelope, error) {
	var event broker.ProductCreatedEvent
	if err := env.Decode(&event); err != nil {
		h.logger.Warnf("malformed product-created event %s: %v", env.MessageID, err)
		return nil, nil
	}

	return nil, h.uc.CreateIfMissing(ctx, event.ProductID)
}
