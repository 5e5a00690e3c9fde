package pgdb

import (
	"context"

	"github.com/DRSN-tech/commerce-backend/internal/domain"
	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// InventoryRepo хранит складские позиции в PostgreSQL.
type InventoryRepo struct {
	pool *pgxpool.Pool
}

func NewInventoryRepo(pool *pgxpool.Pool) *InventoryRepo {
	return &InventoryRepo{
		pool: pool,
	}
}

// CreateIfMissing заводит позицию с нулевым остатком, если её ещё нет.
// Повторные вызовы для того же продукта ничего не меняют.
func (i *InventoryRepo) CreateIfMissing(ctx context.Context, productID uuid.UUID) error {
	query := `
		INSERT INTO inventory_items (id, product_id, quantity)
		VALUES ($1, $2, 0)
		ON CONFLICT (product_id) DO NOTHING`

	_, err := i.pool.Exec(ctx, query, uuid.New(), productID)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// AdjustStock атомарно сдвигает остаток на delta, не опускаясь ниже нуля.
// Позиция создаётся на лету, если продукт ещё не встречался.
func (i *InventoryRepo) AdjustStock(ctx context.Context, productID uuid.UUID, delta int64) (*domain.InventoryItem, error) {
	query := `
		INSERT INTO inventory_items (id, product_id, quantity)
		VALUES ($1, $2, GREATEST($3::bigint, 0))
		ON CONFLICT (product_id) DO UPDATE
		SET quantity = GREATEST(inventory_items.quantity + $3::bigint, 0), updated_at = NOW()
		RETURNING id, product_id, quantity, created_at, updated_at`

	var item domain.InventoryItem
	err := i.pool.QueryRow(ctx, query, uuid.New(), productID, delta).Scan(
		&item.ID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &item, nil
}

// DeleteByProduct удаляет позицию продукта. Отсутствие строки не ошибка.
func (i *InventoryRepo) DeleteByProduct(ctx context.Context, productID uuid.UUID) error {
	_, err := i.pool.Exec(ctx, `DELETE FROM inventory_items WHERE product_id = $1`, productID)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
