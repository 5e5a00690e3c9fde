package converter

import (
	"time"

	"github.com/google/uuid"
)

// ProductModel представляет запись таблицы products в PostgreSQL.
// Цена читается и пишется как текст фиксированной точности.
type ProductModel struct {
	ID             uuid.UUID  `db:"id"`
	Title          string     `db:"title"`
	Description    *string    `db:"description"`
	Price          string     `db:"price"`
	IsActive       bool       `db:"is_active"`
	LastKnownStock int64      `db:"last_known_stock"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events в PostgreSQL.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     uuid.UUID  `db:"event_id"`
	Channel     string     `db:"channel"`
	EntityID    uuid.UUID  `db:"entity_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
