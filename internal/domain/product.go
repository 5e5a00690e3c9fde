package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product — карточка товара в каталоге.
// LastKnownStock — кэшированный снимок остатка; источником истины
// является леджер inventory, сюда значение приходит событием stock-changed.
type Product struct {
	ID             uuid.UUID
	Title          string
	Description    *string
	Price          decimal.Decimal // фиксированная точность, 2 знака
	IsActive       bool
	LastKnownStock int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewProduct(title string, description *string, price decimal.Decimal, isActive bool) *Product {
	return &Product{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Price:       price,
		IsActive:    isActive,
	}
}
