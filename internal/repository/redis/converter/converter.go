package converter

import (
	"github.com/DRSN-tech/commerce-backend/internal/domain"
	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

// ProductConverter преобразует продукты между domain и JSON-моделью кэша.
type ProductConverter struct{}

func NewProductConverter() *ProductConverter {
	return &ProductConverter{}
}

func (c *ProductConverter) ToRedisModel(entity *domain.Product) *ProductRedisModel {
	return &ProductRedisModel{
		ID:             entity.ID,
		Title:          entity.Title,
		Description:    entity.Description,
		Price:          entity.Price.StringFixed(2),
		IsActive:       entity.IsActive,
		LastKnownStock: entity.LastKnownStock,
		CreatedAt:      entity.CreatedAt,
		UpdatedAt:      entity.UpdatedAt,
	}
}

func (c *ProductConverter) ToEntity(model *ProductRedisModel) (*domain.Product, error) {
	price, err := decimal.NewFromString(model.Price)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &domain.Product{
		ID:             model.ID,
		Title:          model.Title,
		Description:    model.Description,
		Price:          price,
		IsActive:       model.IsActive,
		LastKnownStock: model.LastKnownStock,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}, nil
}

func (c *ProductConverter) ToArrRedisModel(entities []*domain.Product) []*ProductRedisModel {
	result := make([]*ProductRedisModel, 0, len(entities))
	for _, entity := range entities {
		result = append(result, c.ToRedisModel(entity))
	}

	return result
}
