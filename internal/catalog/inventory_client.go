package catalog

import (
	"context"
	"time"

	"github.com/DRSN-tech/commerce-backend/internal/broker"
	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
)

// BrokerInventoryClient выполняет компенсирующий вызов в inventory
// через request/reply брокера с конечным таймаутом.
type BrokerInventoryClient struct {
	bus     broker.Bus
	timeout time.Duration
	logger  logger.Logger
}

func NewBrokerInventoryClient(bus broker.Bus, timeout time.Duration, logger logger.Logger) *BrokerInventoryClient {
	return &BrokerInventoryClient{bus: bus, timeout: timeout, logger: logger}
}

func (c *BrokerInventoryClient) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	env, err := broker.NewMessage(broker.ChannelDeleteByProduct, broker.DeleteByProductRequest{
		ProductID: productID,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.bus.Request(ctx, broker.TopicInventoryRPC, env)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return reply.Err()
}
