package converter

import (
	"github.com/DRSN-tech/commerce-backend/internal/catalog"
	"github.com/DRSN-tech/commerce-backend/internal/domain"
	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter struct{}

func NewProductConverter() *ProductConverter {
	return &ProductConverter{}
}

func (c *ProductConverter) ToModel(entity *domain.Product) *ProductModel {
	return &ProductModel{
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

func (c *ProductConverter) ToEntity(model *ProductModel) (*domain.Product, error) {
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

func (c *ProductConverter) ToArrEntity(models []*ProductModel) ([]*domain.Product, error) {
	result := make([]*domain.Product, 0, len(models))
	for _, model := range models {
		entity, err := c.ToEntity(model)
		if err != nil {
			return nil, err
		}
		result = append(result, entity)
	}

	return result, nil
}

// OutboxEventConverter преобразует сущности OutboxEvent между catalog и моделью PostgreSQL.
type OutboxEventConverter struct{}

func NewOutboxEventConverter() *OutboxEventConverter {
	return &OutboxEventConverter{}
}

func (c *OutboxEventConverter) ToModel(entity *catalog.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		Channel:     entity.Channel,
		EntityID:    entity.EntityID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (c *OutboxEventConverter) ToEntity(model *OutboxEventModel) *catalog.OutboxEvent {
	return &catalog.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		Channel:     model.Channel,
		EntityID:    model.EntityID,
		Payload:     model.Payload,
		Status:      catalog.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c *OutboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*catalog.OutboxEvent {
	result := make([]*catalog.OutboxEvent, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}

	return result
}
