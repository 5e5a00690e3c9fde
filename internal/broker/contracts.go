package broker

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Топики. RPC-топики слушает владеющий сервис, event-топики — подписчики.
const (
	TopicCatalogRPC      = "catalog.rpc"
	TopicInventoryRPC    = "inventory.rpc"
	TopicCatalogEvents   = "catalog.events"
	TopicInventoryEvents = "inventory.events"
)

// Каналы. Имена совпадают с паттернами сообщений на проводе.
const (
	ChannelCreateProduct   = "catalog.create-product"
	ChannelListProducts    = "catalog.list-products"
	ChannelGetProduct      = "catalog.get-product"
	ChannelUpdateProduct   = "catalog.update-product"
	ChannelDeleteProduct   = "catalog.delete-product"
	ChannelAdjustStock     = "inventory.adjust-stock"
	ChannelDeleteByProduct = "inventory.delete-by-product"

	EventProductCreated = "product.created"
	EventStockChanged   = "inventory.updated"
)

// ProductPayload — представление продукта на проводе.
// Цена сериализуется строкой фиксированной точности, не числом с плавающей точкой.
type ProductPayload struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	Description    *string         `json:"description"`
	Price          decimal.Decimal `json:"price"`
	IsActive       bool            `json:"isActive"`
	LastKnownStock int64           `json:"lastKnownStock"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type CreateProductRequest struct {
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	IsActive    *bool           `json:"isActive,omitempty"`
}

type GetProductRequest struct {
	ProductID uuid.UUID `json:"productId"`
}

// UpdateProductRequest — частичное обновление: nil-поле означает
// «не передано» и не затирает существующее значение.
type UpdateProductRequest struct {
	ProductID   uuid.UUID        `json:"productId"`
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	IsActive    *bool            `json:"isActive,omitempty"`
}

type DeleteProductRequest struct {
	ProductID uuid.UUID `json:"productId"`
}

type DeleteByProductRequest struct {
	ProductID uuid.UUID `json:"productId"`
}

type DeleteByProductResponse struct {
	Deleted bool `json:"deleted"`
}

type AdjustStockRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Delta     int64     `json:"delta"`
}

type AdjustStockResponse struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int64     `json:"quantity"`
}

// ProductCreatedEvent публикуется каталогом после коммита создания продукта.
type ProductCreatedEvent struct {
	ProductID uuid.UUID `json:"productId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// StockChangedEvent публикуется inventory после каждого изменения остатка.
type StockChangedEvent struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int64     `json:"quantity"`
}
