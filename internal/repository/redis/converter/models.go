package converter

import (
	"time"

	"github.com/google/uuid"
)

type ProductRedisModel struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Description    *string   `json:"description,omitempty"`
	Price          string    `json:"price"`
	IsActive       bool      `json:"is_active"`
	LastKnownStock int64     `json:"last_known_stock"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
