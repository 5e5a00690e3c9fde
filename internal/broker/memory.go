package broker

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
)

const memReplyTopic = "memory.replies"

// MemoryBus — внутрипроцессная реализация порта Bus с той же семантикой
// at-least-once: Nack приводит к повторной доставке (с потолком попыток).
// Используется в тестах вместо Kafka.
type MemoryBus struct {
	log             logger.Logger
	maxRedeliveries int

	mu      sync.Mutex
	subs    map[string]*Dispatcher
	pending map[string]chan *Envelope

	wg sync.WaitGroup
}

func NewMemoryBus(log logger.Logger) *MemoryBus {
	return &MemoryBus{
		log:             log,
		maxRedeliveries: 5,
		subs:            make(map[string]*Dispatcher),
		pending:         make(map[string]chan *Envelope),
	}
}

// Subscribe привязывает диспетчер к топику.
func (b *MemoryBus) Subscribe(topic string, disp *Dispatcher) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[topic] = disp
}

func (b *MemoryBus) Publish(ctx context.Context, topic, key string, env *Envelope) error {
	_ = key

	if topic == memReplyTopic {
		b.mu.Lock()
		ch, ok := b.pending[env.CorrelationID]
		b.mu.Unlock()
		if ok {
			select {
			case ch <- env:
			default:
			}
		}
		return nil
	}

	b.mu.Lock()
	disp, ok := b.subs[topic]
	b.mu.Unlock()
	if !ok {
		return e.Wrap("no consumer for topic "+topic, e.ErrUpstreamUnavailable)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.deliver(ctx, disp, env)
	}()

	return nil
}

func (b *MemoryBus) Request(ctx context.Context, topic string, env *Envelope) (*Envelope, error) {
	if env.CorrelationID == "" {
		env.CorrelationID = uuid.NewString()
	}
	env.ReplyTo = memReplyTopic

	ch := make(chan *Envelope, 1)
	b.mu.Lock()
	b.pending[env.CorrelationID] = ch
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.pending, env.CorrelationID)
		b.mu.Unlock()
	}()

	if err := b.Publish(ctx, topic, env.CorrelationID, env); err != nil {
		return nil, err
	}

	select {
	case reply := <-ch:
		return reply, nil
	case <-ctx.Done():
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrUpstreamUnavailable)
	}
}

// deliver доставляет конверт, повторяя после Nack до maxRedeliveries раз.
func (b *MemoryBus) deliver(ctx context.Context, disp *Dispatcher, env *Envelope) {
	for attempt := 0; attempt <= b.maxRedeliveries; attempt++ {
		dlv := NewDelivery(env, nil, nil)
		disp.Dispatch(ctx, dlv)
		if dlv.Acked() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Millisecond):
		}
	}

	b.log.Warnf("message %s on channel %s dropped after %d redeliveries",
		env.MessageID, env.Channel, b.maxRedeliveries)
}

// Wait дожидается завершения всех асинхронных доставок. Для тестов.
func (b *MemoryBus) Wait() {
	b.wg.Wait()
}
