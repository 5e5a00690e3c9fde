package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/commerce-backend/internal/broker"
	"github.com/DRSN-tech/commerce-backend/internal/catalog"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memOutboxRepo повторяет переходы статусов SQL-репозитория.
type memOutboxRepo struct {
	mu     sync.Mutex
	nextID int64
	events []*catalog.OutboxEvent
}

func (m *memOutboxRepo) Create(_ context.Context, event *catalog.OutboxEvent) (*catalog.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	event.ID = m.nextID
	m.events = append(m.events, event)
	return event, nil
}

func (m *memOutboxRepo) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*catalog.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var batch []*catalog.OutboxEvent
	for _, ev := range m.events {
		if ev.Status != catalog.Pending {
			continue
		}
		ev.Status = catalog.Processing
		batch = append(batch, ev)
		if len(batch) == limit {
			break
		}
	}
	return batch, nil
}

func (m *memOutboxRepo) MarkAsProcessed(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events {
		if ev.ID == id && ev.Status == catalog.Processing {
			ev.Status = catalog.Processed
		}
	}
	return nil
}

func (m *memOutboxRepo) RequeueStale(_ context.Context, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, ev := range m.events {
		if ev.Status == catalog.Processing {
			ev.Status = catalog.Pending
			n++
		}
	}
	return n, nil
}

func (m *memOutboxRepo) status(id int64) catalog.OutboxStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ev := range m.events {
		if ev.ID == id {
			return ev.Status
		}
	}
	return ""
}

type flakyBus struct {
	mu        sync.Mutex
	failing   bool
	published []*broker.Envelope
}

func (b *flakyBus) Publish(_ context.Context, _, _ string, env *broker.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing {
		return fmt.Errorf("dial tcp: connection refused")
	}
	b.published = append(b.published, env)
	return nil
}

func (b *flakyBus) Request(_ context.Context, _ string, _ *broker.Envelope) (*broker.Envelope, error) {
	return nil, fmt.Errorf("not implemented")
}

func (b *flakyBus) setFailing(failing bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failing = failing
}

func newOutboxEvent(t *testing.T) *catalog.OutboxEvent {
	t.Helper()
	productID := uuid.New()
	payload, err := json.Marshal(broker.ProductCreatedEvent{
		ProductID: productID,
		Title:     "Desk",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return catalog.NewOutboxEvent(broker.EventProductCreated, productID, payload)
}

func TestWorkerPublishesAndMarksProcessed(t *testing.T) {
	repo := &memOutboxRepo{}
	bus := &flakyBus{}
	w := NewWorker(repo, logger.NewNop(), bus, "")

	event, err := repo.Create(context.Background(), newOutboxEvent(t))
	require.NoError(t, err)

	w.drain(context.Background())

	assert.Equal(t, catalog.Processed, repo.status(event.ID))
	require.Len(t, bus.published, 1)

	// Конверт несёт event_id как id сообщения: повтор публикации
	// не плодит новые идентификаторы.
	env := bus.published[0]
	assert.Equal(t, event.EventID.String(), env.MessageID)
	assert.Equal(t, broker.EventProductCreated, env.Channel)
}

func TestWorkerRequeuesEventAfterPublishFailure(t *testing.T) {
	repo := &memOutboxRepo{}
	bus := &flakyBus{failing: true}
	w := NewWorker(repo, logger.NewNop(), bus, "")

	event, err := repo.Create(context.Background(), newOutboxEvent(t))
	require.NoError(t, err)

	// Публикация упала: событие остаётся заявленным, но не обработанным.
	w.drain(context.Background())
	assert.Equal(t, catalog.Processing, repo.status(event.ID))
	assert.Empty(t, bus.published)

	// Брокер ожил: sweep возвращает событие в pending и дожимает его.
	bus.setFailing(false)
	w.sweep(context.Background())

	assert.Equal(t, catalog.Processed, repo.status(event.ID))
	require.Len(t, bus.published, 1)
	assert.Equal(t, event.EventID.String(), bus.published[0].MessageID)
}

func TestWorkerSweepIsNoOpWhenQueueEmpty(t *testing.T) {
	repo := &memOutboxRepo{}
	bus := &flakyBus{}
	w := NewWorker(repo, logger.NewNop(), bus, "")

	w.sweep(context.Background())
	assert.Empty(t, bus.published)
}
