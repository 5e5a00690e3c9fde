package inventory

import (
	"context"

	"github.com/DRSN-tech/commerce-backend/internal/broker"
	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
)

// BrokerEventPublisher публикует события inventory в брокер.
type BrokerEventPublisher struct {
	bus broker.Bus
}

func NewBrokerEventPublisher(bus broker.Bus) *BrokerEventPublisher {
	return &BrokerEventPublisher{bus: bus}
}

func (p *BrokerEventPublisher) StockChanged(ctx context.Context, productID uuid.UUID, quantity int64) error {
	env, err := broker.NewMessage(broker.EventStockChanged, broker.StockChangedEvent{
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := p.bus.Publish(ctx, broker.TopicInventoryEvents, productID.String(), env); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
