package catalog

import (
	"time"

	"github.com/google/uuid"
)

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

// OutboxEvent — событие, записанное в одной транзакции с изменением
// данных и опубликованное воркером после коммита.
type OutboxEvent struct {
	ID          int64
	EventID     uuid.UUID
	Channel     string
	EntityID    uuid.UUID
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func NewOutboxEvent(channel string, entityID uuid.UUID, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   uuid.New(),
		Channel:   channel,
		EntityID:  entityID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now().UTC(),
	}
}
