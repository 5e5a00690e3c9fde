package inventory

import (
	"context"

	"github.com/DRSN-tech/commerce-backend/internal/domain"
	"github.com/google/uuid"
)

type InventoryRepository interface {
	// CreateIfMissing идемпотентно: существующая строка — no-op.
	CreateIfMissing(ctx context.Context, productID uuid.UUID) error
	// AdjustStock атомарно применяет quantity = max(quantity + delta, 0),
	// лениво создавая строку леджера. Возвращает итоговую строку леджера.
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int64) (*domain.InventoryItem, error)
	// DeleteByProduct идемпотентен: отсутствие строки — успех.
	DeleteByProduct(ctx context.Context, productID uuid.UUID) error
}

// EventPublisher публикует stock-changed после изменения остатка.
type EventPublisher interface {
	StockChanged(ctx context.Context, productID uuid.UUID, quantity int64) error
}
