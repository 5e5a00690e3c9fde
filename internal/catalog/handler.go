package catalog

import (
	"context"

	"github.com/DRSN-tech/commerce-backend/internal/broker"
	"github.com/DRSN-tech/commerce-backend/internal/domain"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
)

// Handler привязывает каналы каталога к use case.
type Handler struct {
	uc     *ProductUseCase
	logger logger.Logger
}

func NewHandler(uc *ProductUseCase, logger logger.Logger) *Handler {
	return &Handler{uc: uc, logger: logger}
}

// Register собирает таблицу диспетчеризации каталога.
func (h *Handler) Register(d *broker.Dispatcher) {
	d.Handle(broker.ChannelCreateProduct, h.createProduct)
	d.Handle(broker.ChannelListProducts, h.listProducts)
	d.Handle(broker.ChannelGetProduct, h.getProduct)
	d.Handle(broker.ChannelUpdateProduct, h.updateProduct)
	d.Handle(broker.ChannelDeleteProduct, h.deleteProduct)
	d.Handle(broker.EventStockChanged, h.onStockChanged)
}

func (h *Handler) createProduct(ctx context.Context, env *broker.Envelope) (*broker.Envelope, error) {
	var req broker.CreateProductRequest
	if err := env.Decode(&req); err != nil {
		return nil, err
	}

	product, err := h.uc.CreateProduct(ctx, &req)
	if err != nil {
		return nil, err
	}

	return broker.NewReply(env, toProductPayload(product))
}

func (h *Handler) listProducts(ctx context.Context, env *broker.Envelope) (*broker.Envelope, error) {
	products, err := h.uc.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	payload := make([]broker.ProductPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, toProductPayload(product))
	}

	return broker.NewReply(env, payload)
}

func (h *Handler) getProduct(ctx context.Context, env *broker.Envelope) (*broker.Envelope, error) {
	var req broker.GetProductRequest
	if err := env.Decode(&req); err != nil {
		return nil, err
	}

	product, err := h.uc.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	return broker.NewReply(env, toProductPayload(product))
}

func (h *Handler) updateProduct(ctx context.Context, env *broker.Envelope) (*broker.Envelope, error) {
	var req broker.UpdateProductRequest
	if err := env.Decode(&req); err != nil {
		return nil, err
	}

	product, err := h.uc.UpdateProduct(ctx, &req)
	if err != nil {
		return nil, err
	}

	return broker.NewReply(env, toProductPayload(product))
}

func (h *Handler) deleteProduct(ctx context.Context, env *broker.Envelope) (*broker.Envelope, error) {
	var req broker.DeleteProductRequest
	if err := env.Decode(&req); err != nil {
		return nil, err
	}

	if err := h.uc.DeleteProduct(ctx, req.ProductID); err != nil {
		return nil, err
	}

	return broker.NewReply(env, struct{}{})
}

func (h *Handler) onStockChanged(ctx context.Context, env *broker.Envelope) (*broker.Envelope, error) {
	var event broker.StockChangedEvent
	if err := env.Decode(&event); err != nil {
		// Нечитаемое событие подтверждаем: его повторная доставка не станет читаемой.
		h.logger.Warnf("malformed stock-changed event %s: %v", env.MessageID, err)
		return nil, nil
	}

	return nil, h.uc.ApplyStockChanged(ctx, event.ProductID, event.Quantity)
}

func toProductPayload(product *domain.Product) broker.ProductPayload {
	return broker.ProductPayload{
		ID:             product.ID,
		Title:          product.Title,
		Description:    product.Description,
		Price:          product.Price,
		IsActive:       product.IsActive,
		LastKnownStock: product.LastKnownStock,
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
	}
}
