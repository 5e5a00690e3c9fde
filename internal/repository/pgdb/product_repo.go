package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/commerce-backend/internal/domain"
	"github.com/DRSN-tech/commerce-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/DRSN-tech/commerce-backend/pkg/tr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// ProductRepo реализует репозиторий продуктов каталога поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv *converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv *converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

const productColumns = `id, title, description, price::text, is_active, last_known_stock, created_at, updated_at`

// Create вставляет продукт внутри транзакции из контекста.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model := p.conv.ToModel(product)
	query := `
		INSERT INTO products (id, title, description, price, is_active, last_known_stock)
		VALUES ($1, $2, $3, $4::numeric, $5, 0)
		RETURNING ` + productColumns

	row := tx.QueryRow(ctx, query,
		model.ID,
		model.Title,
		model.Description,
		model.Price,
		model.IsActive,
	)

	saved, err := scanProduct(row)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductAlreadyExists)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(saved)
}

// List возвращает все продукты, новые первыми.
func (p *ProductRepo) List(ctx context.Context) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var models []*converter.ProductModel
	for rows.Next() {
		model, err := scanProduct(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		models = append(models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models)
}

func (p *ProductRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	model, err := scanProduct(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model)
}

func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		UPDATE products
		SET title = $2, description = $3, price = $4::numeric, is_active = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	row := p.pool.QueryRow(ctx, query,
		model.ID,
		model.Title,
		model.Description,
		model.Price,
		model.IsActive,
	)

	saved, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(saved)
}

// Delete удаляет продукт; false — строки уже не было.
func (p *ProductRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := p.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return result.RowsAffected() > 0, nil
}

// SetLastKnownStock обновляет кэшированный остаток; false — продукта уже нет.
func (p *ProductRepo) SetLastKnownStock(ctx context.Context, id uuid.UUID, quantity int64) (bool, error) {
	query := `UPDATE products SET last_known_stock = $2, updated_at = NOW() WHERE id = $1`

	result, err := p.pool.Exec(ctx, query, id, quantity)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return result.RowsAffected() > 0, nil
}

func scanProduct(row pgx.Row) (*converter.ProductModel, error) {
	var model converter.ProductModel
	err := row.Scan(
		&model.ID,
		&model.Title,
		&model.Description,
		&model.Price,
		&model.IsActive,
		&model.LastKnownStock,
		&model.CreatedAt,
		&model.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}

func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
