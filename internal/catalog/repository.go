package catalog

import (
	"context"
	"time"

	"github.com/DRSN-tech/commerce-backend/internal/domain"
	"github.com/google/uuid"
)

type ProductRepository interface {
	// Create выполняется внутри транзакции из контекста.
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	// Get возвращает e.ErrProductNotFound для несуществующего id.
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	// Delete сообщает, была ли строка реально удалена.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// SetLastKnownStock обновляет кэшированный остаток; false — продукта уже нет.
	SetLastKnownStock(ctx context.Context, id uuid.UUID, quantity int64) (bool, error)
}

type OutboxRepository interface {
	// Create выполняется внутри транзакции из контекста.
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	// RequeueStale возвращает в pending события, зависшие в processing
	// дольше olderThan (упавшая публикация или рестарт воркера).
	RequeueStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

type CacheRepository interface {
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Product, error)
	SetProducts(ctx context.Context, products []*domain.Product) error
	DeleteProducts(ctx context.Context, ids []uuid.UUID) error
}

// InventoryClient — синхронный компенсирующий вызов в inventory (шаг 1 саги удаления).
type InventoryClient interface {
	DeleteByProduct(ctx context.Context, productID uuid.UUID) error
}
