package inventory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/commerce-backend/internal/domain"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memInventoryRepo повторяет семантику SQL-репозитория: атомарный сдвиг
// с полом в ноль и ленивое создание строки.
type memInventoryRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]int64
}

func newMemInventoryRepo() *memInventoryRepo {
	return &memInventoryRepo{items: make(map[uuid.UUID]int64)}
}

func (m *memInventoryRepo) CreateIfMissing(_ context.Context, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[productID]; !ok {
		m.items[productID] = 0
	}
	return nil
}

func (m *memInventoryRepo) AdjustStock(_ context.Context, productID uuid.UUID, delta int64) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := m.items[productID] + delta
	if q < 0 {
		q = 0
	}
	m.items[productID] = q
	return &domain.InventoryItem{
		ID:        uuid.New(),
		ProductID: productID,
		Quantity:  q,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

func (m *memInventoryRepo) DeleteByProduct(_ context.Context, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, productID)
	return nil
}

func (m *memInventoryRepo) quantity(productID uuid.UUID) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.items[productID]
	return q, ok
}

type stockEvent struct {
	productID uuid.UUID
	quantity  int64
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []stockEvent
	err    error
}

func (p *recordingPublisher) StockChanged(_ context.Context, productID uuid.UUID, quantity int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, stockEvent{productID: productID, quantity: quantity})
	return nil
}

func (p *recordingPublisher) published() []stockEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]stockEvent(nil), p.events...)
}

func TestAdjustStockCreatesItemLazily(t *testing.T) {
	repo := newMemInventoryRepo()
	pub := &recordingPublisher{}
	uc := NewInventoryUC(repo, pub, logger.NewNop())

	productID := uuid.New()
	quantity, err := uc.AdjustStock(context.Background(), productID, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), quantity)

	stored, ok := repo.quantity(productID)
	require.True(t, ok)
	assert.Equal(t, int64(7), stored)
}

func TestAdjustStockFloorsAtZero(t *testing.T) {
	repo := newMemInventoryRepo()
	pub := &recordingPublisher{}
	uc := NewInventoryUC(repo, pub, logger.NewNop())

	productID := uuid.New()
	_, err := uc.AdjustStock(context.Background(), productID, 3)
	require.NoError(t, err)

	quantity, err := uc.AdjustStock(context.Background(), productID, -10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), quantity)

	// Дельта для несуществующего продукта тоже упирается в пол.
	quantity, err = uc.AdjustStock(context.Background(), uuid.New(), -5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), quantity)
}

func TestAdjustStockPublishesStockChanged(t *testing.T) {
	repo := newMemInventoryRepo()
	pub := &recordingPublisher{}
	uc := NewInventoryUC(repo, pub, logger.NewNop())

	productID := uuid.New()
	_, err := uc.AdjustStock(context.Background(), productID, 4)
	require.NoError(t, err)

	events := pub.published()
	require.Len(t, events, 1)
	// Событие несёт продукт и остаток из итоговой строки леджера.
	assert.Equal(t, productID, events[0].productID)
	assert.Equal(t, int64(4), events[0].quantity)
}

func TestAdjustStockSucceedsWhenPublishFails(t *testing.T) {
	repo := newMemInventoryRepo()
	pub := &recordingPublisher{err: fmt.Errorf("broker down")}
	uc := NewInventoryUC(repo, pub, logger.NewNop())

	productID := uuid.New()
	quantity, err := uc.AdjustStock(context.Background(), productID, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), quantity)

	// Остаток закоммичен несмотря на отказ публикации.
	stored, ok := repo.quantity(productID)
	require.True(t, ok)
	assert.Equal(t, int64(9), stored)
}

func TestCreateIfMissingIsIdempotent(t *testing.T) {
	repo := newMemInventoryRepo()
	uc := NewInventoryUC(repo, &recordingPublisher{}, logger.NewNop())

	productID := uuid.New()
	require.NoError(t, uc.CreateIfMissing(context.Background(), productID))

	_, err := uc.AdjustStock(context.Background(), productID, 5)
	require.NoError(t, err)

	// Повторная доставка product.created не сбрасывает остаток.
	require.NoError(t, uc.CreateIfMissing(context.Background(), productID))

	stored, _ := repo.quantity(productID)
	assert.Equal(t, int64(5), stored)
}

func TestDeleteByProductIsIdempotent(t *testing.T) {
	repo := newMemInventoryRepo()
	uc := NewInventoryUC(repo, &recordingPublisher{}, logger.NewNop())

	productID := uuid.New()
	_, err := uc.AdjustStock(context.Background(), productID, 2)
	require.NoError(t, err)

	require.NoError(t, uc.DeleteByProduct(context.Background(), productID))
	_, ok := repo.quantity(productID)
	assert.False(t, ok)

	// Повторное удаление — успех без ошибки.
	require.NoError(t, uc.DeleteByProduct(context.Background(), productID))
}

func TestAdjustStockConcurrent(t *testing.T) {
	repo := newMemInventoryRepo()
	uc := NewInventoryUC(repo, &recordingPublisher{}, logger.NewNop())

	productID := uuid.New()
	const workers = 20

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.AdjustStock(context.Background(), productID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, _ := repo.quantity(productID)
	assert.Equal(t, int64(workers), stored)
}
