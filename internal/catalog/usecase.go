package catalog

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/DRSN-tech/commerce-backend/internal/broker"
	"github.com/DRSN-tech/commerce-backend/internal/domain"
	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/DRSN-tech/commerce-backend/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ProductUseCase реализует бизнес-логику каталога: CRUD продуктов,
// сага удаления и обработка событий изменения остатка.
type ProductUseCase struct {
	productRepo ProductRepository
	outboxRepo  OutboxRepository
	cacheRepo   CacheRepository
	inventory   InventoryClient
	dbPool      transaction.Transactional
	logger      logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	inventory InventoryClient,
	dbPool transaction.Transactional,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		cacheRepo:   cacheRepo,
		inventory:   inventory,
		dbPool:      dbPool,
		logger:      logger,
	}
}

// CreateProduct валидирует запрос, сохраняет продукт и ставит событие
// product.created в outbox в той же транзакции. Событие публикуется
// воркером строго после коммита: продукт, который не закоммитился,
// события не породит.
func (c *ProductUseCase) CreateProduct(ctx context.Context, req *broker.CreateProductRequest) (*domain.Product, error) {
	const op = "ProductUseCase.CreateProduct"

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, e.Wrap(op, e.ErrTitleRequired)
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, e.Wrap(op, err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	var err error
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, c.dbPool)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, tr.CtxKey, tx.Transaction())

	var product *domain.Product
	product, err = c.productRepo.Create(ctx, domain.NewProduct(title, req.Description, req.Price, isActive))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var payload []byte
	payload, err = json.Marshal(broker.ProductCreatedEvent{
		ProductID: product.ID,
		Title:     product.Title,
		CreatedAt: product.CreatedAt,
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if _, err = c.outboxRepo.Create(ctx, NewOutboxEvent(broker.EventProductCreated, product.ID, payload)); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	return product, nil
}

// ListProducts возвращает все продукты, новые первыми.
func (c *ProductUseCase) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	const op = "ProductUseCase.ListProducts"

	products, err := c.productRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

// GetProduct возвращает продукт по id, сначала из кэша.
func (c *ProductUseCase) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	const op = "ProductUseCase.GetProduct"

	cached, err := c.cacheRepo.GetProducts(ctx, []uuid.UUID{id})
	if err == nil {
		if product, ok := cached[id]; ok {
			return product, nil
		}
	}

	product, err := c.productRepo.Get(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := c.cacheRepo.SetProducts(ctx, []*domain.Product{product}); err != nil {
		c.logger.Warnf("failed to cache product %s: %v", id, err)
	}

	return product, nil
}

// UpdateProduct — частичное обновление: перезаписываются только поля,
// присутствующие в запросе. Description со значением "" отличим от
// отсутствующего description.
func (c *ProductUseCase) UpdateProduct(ctx context.Context, req *broker.UpdateProductRequest) (*domain.Product, error) {
	const op = "ProductUseCase.UpdateProduct"

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, e.Wrap(op, e.ErrTitleRequired)
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	product, err := c.productRepo.Get(ctx, req.ProductID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if req.Title != nil {
		product.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	updated, err := c.productRepo.Update(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	c.invalidate(ctx, req.ProductID)
	return updated, nil
}

// DeleteProduct — двухшаговая сага без автоматического отката второго шага:
// (1) синхронный компенсирующий вызов в inventory, (2) локальное удаление.
// Отказ шага 1 оставляет продукт на месте — это принятая цена за отсутствие
// осиротевшего леджера. Ноль удалённых строк на шаге 2 — NotFound, шаг 1
// не повторяется.
func (c *ProductUseCase) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	const op = "ProductUseCase.DeleteProduct"

	if err := c.inventory.DeleteByProduct(ctx, id); err != nil {
		return e.Wrap(op, err)
	}

	deleted, err := c.productRepo.Delete(ctx, id)
	if err != nil {
		return e.Wrap(op, err)
	}
	if !deleted {
		return e.Wrap(op, e.ErrProductNotFound)
	}

	c.invalidate(ctx, id)
	return nil
}

// ApplyStockChanged обновляет кэшированный остаток продукта.
// Отсутствие продукта — штатный случай (запоздавшее событие после
// удаления), не ошибка.
func (c *ProductUseCase) ApplyStockChanged(ctx context.Context, productID uuid.UUID, quantity int64) error {
	const op = "ProductUseCase.ApplyStockChanged"

	ok, err := c.productRepo.SetLastKnownStock(ctx, productID, quantity)
	if err != nil {
		return e.Wrap(op, err)
	}
	if !ok {
		c.logger.Debugf("stock-changed for missing product %s, ignoring", productID)
		return nil
	}

	c.invalidate(ctx, productID)
	return nil
}

func (c *ProductUseCase) invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.cacheRepo.DeleteProducts(ctx, []uuid.UUID{id}); err != nil {
		c.logger.Warnf("failed to invalidate cache for product %s: %v", id, err)
	}
}

// validatePrice принимает неотрицательные значения с масштабом не более 2 знаков.
func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return e.ErrInvalidPrice
	}
	if price.Exponent() < -2 {
		return e.ErrPricePrecision
	}

	return nil
}
