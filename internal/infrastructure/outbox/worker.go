package outbox

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/commerce-backend/internal/broker"
	"github.com/DRSN-tech/commerce-backend/internal/catalog"
	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Worker публикует события из outbox-таблицы после коммита транзакции.
// Будится через LISTEN/NOTIFY, при старте добирает накопившиеся события,
// а периодический sweep возвращает зависшие processing-строки в pending.
type Worker struct {
	repo          catalog.OutboxRepository
	logger        logger.Logger
	bus           broker.Bus
	stop          chan struct{}
	wg            sync.WaitGroup
	dbConnStr     string
	staleAfter    time.Duration
	sweepInterval time.Duration
}

func NewWorker(
	repo catalog.OutboxRepository,
	logger logger.Logger,
	bus broker.Bus,
	dbConnStr string,
) *Worker {
	const (
		defaultStaleAfter    = time.Minute
		defaultSweepInterval = 30 * time.Second
	)

	return &Worker{
		repo:          repo,
		logger:        logger,
		bus:           bus,
		stop:          make(chan struct{}),
		dbConnStr:     dbConnStr,
		staleAfter:    defaultStaleAfter,
		sweepInterval: defaultSweepInterval,
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	// Запускаем слушатель уведомлений
	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

func (w *Worker) Stop() {
	close(w.stop)
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	// Обрабатываем "остатки" при старте
	w.logger.Infof("Draining pending outbox events on startup...")
	w.sweep(ctx)

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infof("Worker stopped by context cancellation")
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep возвращает зависшие processing-события в pending и дожимает очередь.
// Страхует и от упавшей публикации, и от пропущенного NOTIFY.
func (w *Worker) sweep(ctx context.Context) {
	requeued, err := w.repo.RequeueStale(ctx, w.staleAfter)
	if err != nil {
		w.logger.Warnf("requeue of stale outbox events failed: %v", err)
	}
	if requeued > 0 {
		w.logger.Infof("requeued %d stale outbox events", requeued)
	}

	w.drain(ctx)
}

func (w *Worker) drain(ctx context.Context) {
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("Batch processing failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

func (w *Worker) listenOutboxNotifications(ctx context.Context) {
	var conn *pgx.Conn
	var err error

	connect := func() error {
		conn, err = pgx.Connect(ctx, w.dbConnStr)
		if err != nil {
			return e.Wrap("failed to connect for LISTEN", err)
		}

		_, err = conn.Exec(ctx, "LISTEN outbox_pending")
		if err != nil {
			conn.Close(ctx)
			return e.Wrap("failed to LISTEN", err)
		}

		w.logger.Infof("Subscribed to 'outbox_pending' channel")
		return nil
	}

	if err := connect(); err != nil {
		w.logger.Warnf("Initial connect failed: %v", err)
		return
	}
	defer conn.Close(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
			ctxWithTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
			notif, err := conn.WaitForNotification(ctxWithTimeout)
			cancel()

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					continue
				}
				w.logger.Warnf("Connection lost: %v. Reconnecting...", err)
				conn.Close(ctx)

				time.Sleep(2 * time.Second)
				if err := connect(); err != nil {
					w.logger.Warnf("Reconnect failed: %v", err)
					time.Sleep(5 * time.Second)
				}
				continue
			}

			if notif != nil && notif.Channel == "outbox_pending" {
				w.logger.Debugf("Received outbox notification, draining outbox events")
				w.drain(ctx)
			}
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, 10)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	for _, event := range events {
		if err := w.publishEvent(ctx, event); err != nil {
			w.logger.Warnf("publish failed for event %s: %v", event.EventID, err)
			continue
		}
		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	return true, nil
}

// publishEvent отправляет событие в брокер в стандартном конверте.
// MessageID берётся из event_id, чтобы повтор публикации не плодил
// новые идентификаторы.
func (w *Worker) publishEvent(ctx context.Context, event *catalog.OutboxEvent) error {
	env := &broker.Envelope{
		MessageID:  event.EventID.String(),
		Channel:    event.Channel,
		OccurredAt: event.CreatedAt,
		Payload:    event.Payload,
	}

	if err := w.sendEnvelope(ctx, event.EntityID, env); err != nil {
		if isRetryableError(err) {
			return e.Wrap("Temporary broker failure, will retry", err)
		}
		return e.Wrap("Permanent broker failure", err)
	}

	return nil
}

func (w *Worker) sendEnvelope(ctx context.Context, entityID uuid.UUID, env *broker.Envelope) error {
	return w.bus.Publish(ctx, broker.TopicCatalogEvents, entityID.String(), env)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
