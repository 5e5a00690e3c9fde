package inventory

import (
	"context"

	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/google/uuid"
)

// InventoryUseCase владеет авторитетным леджером остатков.
type InventoryUseCase struct {
	repo      InventoryRepository
	publisher EventPublisher
	logger    logger.Logger
}

func NewInventoryUC(repo InventoryRepository, publisher EventPublisher, logger logger.Logger) *InventoryUseCase {
	return &InventoryUseCase{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateIfMissing создает нулевую строку леджера для нового продукта.
// Повторная доставка product.created даёт тот же результат.
func (u *InventoryUseCase) CreateIfMissing(ctx context.Context, productID uuid.UUID) error {
	const op = "InventoryUseCase.CreateIfMissing"

	if err := u.repo.CreateIfMissing(ctx, productID); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// AdjustStock применяет дельту с полом в ноль и публикует stock-changed.
// Запрос по продукту без строки леджера тоже успешен: порядок доставки
// adjust-stock относительно product.created не гарантирован, строка
// создаётся лениво.
func (u *InventoryUseCase) AdjustStock(ctx context.Context, productID uuid.UUID, delta int64) (int64, error) {
	const op = "InventoryUseCase.AdjustStock"

	item, err := u.repo.AdjustStock(ctx, productID, delta)
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	// Остаток уже закоммичен. Если событие не ушло, кэш каталога отстанет
	// до следующего изменения остатка — принятое окно рассинхронизации.
	if err := u.publisher.StockChanged(ctx, item.ProductID, item.Quantity); err != nil {
		u.logger.Warnf("failed to publish stock-changed for product %s: %v", item.ProductID, err)
	}

	return item.Quantity, nil
}

// DeleteByProduct удаляет строку леджера; отсутствие строки — успех.
func (u *InventoryUseCase) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	const op = "InventoryUseCase.DeleteByProduct"

	if err := u.repo.DeleteByProduct(ctx, productID); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}
