package gateway

import (
	"context"
	"time"

	"github.com/DRSN-tech/commerce-backend/internal/broker"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/google/uuid"
)

// CatalogClient — тонкий клиент каталога поверх брокера. Каждый вызов
// ограничен конечным таймаутом: подвисший сервис каталога не должен
// подвешивать HTTP-запрос.
type CatalogClient struct {
	bus     broker.Bus
	timeout time.Duration
	logger  logger.Logger
}

func NewCatalogClient(bus broker.Bus, timeout time.Duration, logger logger.Logger) *CatalogClient {
	return &CatalogClient{
		bus:     bus,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *CatalogClient) CreateProduct(ctx context.Context, req *broker.CreateProductRequest) (*broker.ProductPayload, error) {
	var payload broker.ProductPayload
	if err := c.call(ctx, broker.ChannelCreateProduct, req, &payload); err != nil {
		return nil, err
	}

	return &payload, nil
}

func (c *CatalogClient) ListProducts(ctx context.Context) ([]*broker.ProductPayload, error) {
	var payload []*broker.ProductPayload
	if err := c.call(ctx, broker.ChannelListProducts, struct{}{}, &payload); err != nil {
		return nil, err
	}

	return payload, nil
}

func (c *CatalogClient) GetProduct(ctx context.Context, id uuid.UUID) (*broker.ProductPayload, error) {
	var payload broker.ProductPayload
	if err := c.call(ctx, broker.ChannelGetProduct, &broker.GetProductRequest{ProductID: id}, &payload); err != nil {
		return nil, err
	}

	return &payload, nil
}

func (c *CatalogClient) UpdateProduct(ctx context.Context, req *broker.UpdateProductRequest) (*broker.ProductPayload, error) {
	var payload broker.ProductPayload
	if err := c.call(ctx, broker.ChannelUpdateProduct, req, &payload); err != nil {
		return nil, err
	}

	return &payload, nil
}

func (c *CatalogClient) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return c.call(ctx, broker.ChannelDeleteProduct, &broker.DeleteProductRequest{ProductID: id}, nil)
}

func (c *CatalogClient) call(ctx context.Context, channel string, req, reply any) error {
	return request(ctx, c.bus, broker.TopicCatalogRPC, channel, c.timeout, req, reply)
}

// InventoryClient — клиент склада поверх брокера.
type InventoryClient struct {
	bus     broker.Bus
	timeout time.Duration
	logger  logger.Logger
}

func NewInventoryClient(bus broker.Bus, timeout time.Duration, logger logger.Logger) *InventoryClient {
	return &InventoryClient{
		bus:     bus,
		timeout: timeout,
		logger:  logger,
	}
}

func (c *InventoryClient) AdjustStock(ctx context.Context, req *broker.AdjustStockRequest) (*broker.AdjustStockResponse, error) {
	var payload broker.AdjustStockResponse
	err := request(ctx, c.bus, broker.TopicInventoryRPC, broker.ChannelAdjustStock, c.timeout, req, &payload)
	if err != nil {
		return nil, err
	}

	return &payload, nil
}

func request(ctx context.Context, bus broker.Bus, topic, channel string, timeout time.Duration, req, reply any) error {
	env, err := broker.NewMessage(channel, req)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := bus.Request(ctx, topic, env)
	if err != nil {
		return err
	}

	if err := resp.Err(); err != nil {
		return err
	}

	if reply == nil {
		return nil
	}

	return resp.Decode(reply)
}
