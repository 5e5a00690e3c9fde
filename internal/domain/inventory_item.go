package domain

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem — строка авторитетного леджера остатков.
// На продукт приходится не более одной строки; Quantity никогда не
// опускается ниже нуля.
type InventoryItem struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
