package broker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/DRSN-tech/commerce-backend/internal/cfg"
	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/DRSN-tech/commerce-backend/pkg/jitter"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
)

// KafkaBus реализует порт Bus поверх Kafka.
// События — обычные топики; request/reply — rpc-топик сервиса плюс
// уникальный reply-топик инстанса, сопоставление по CorrelationID.
type KafkaBus struct {
	cfg        *cfg.KafkaCfg
	log        logger.Logger
	replyTopic string

	mu      sync.Mutex
	writers map[string]*kafka.Writer

	pmu     sync.Mutex
	pending map[string]chan *Envelope
}

// NewKafkaBus создает шину. replyTopic должен быть уникальным для инстанса
// процесса: ответы на его запросы не должны попасть другому инстансу.
func NewKafkaBus(kafkaCfg *cfg.KafkaCfg, log logger.Logger, replyTopic string) *KafkaBus {
	return &KafkaBus{
		cfg:        kafkaCfg,
		log:        log,
		replyTopic: replyTopic,
		writers:    make(map[string]*kafka.Writer),
		pending:    make(map[string]chan *Envelope),
	}
}

func (b *KafkaBus) writer(topic string) *kafka.Writer {
	b.mu.Lock()
	defer b.mu.Unlock()

	if w, ok := b.writers[topic]; ok {
		return w
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(b.cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchSize:              10,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
		AllowAutoTopicCreation: true,
	}
	b.writers[topic] = w

	return w
}

// Publish пишет конверт в топик. Ключ — productId, чтобы сообщения одной
// сущности попадали в одну партицию и сохраняли порядок.
func (b *KafkaBus) Publish(ctx context.Context, topic, key string, env *Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	err = b.writer(topic).WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Request отправляет запрос и ждёт коррелированный ответ до дедлайна ctx.
// Таймаут и недоступность брокера возвращаются как ErrUpstreamUnavailable —
// это отличимая от NotFound ошибка.
func (b *KafkaBus) Request(ctx context.Context, topic string, env *Envelope) (*Envelope, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, e.Wrap("broker request requires a finite deadline", e.ErrInternalServerError)
	}

	if env.CorrelationID == "" {
		env.CorrelationID = uuid.NewString()
	}
	env.ReplyTo = b.replyTopic

	ch := make(chan *Envelope, 1)
	b.pmu.Lock()
	b.pending[env.CorrelationID] = ch
	b.pmu.Unlock()
	defer func() {
		b.pmu.Lock()
		delete(b.pending, env.CorrelationID)
		b.pmu.Unlock()
	}()

	if err := b.Publish(ctx, topic, env.CorrelationID, env); err != nil {
		return nil, e.Wrap(err.Error(), e.ErrUpstreamUnavailable)
	}

	select {
	case reply := <-ch:
		return reply, nil
	case <-ctx.Done():
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrUpstreamUnavailable)
	}
}

// ServeReplies читает reply-топик инстанса и раздаёт ответы ожидающим
// запросам. Читается с авто-коммитом: потерянный ответ эквивалентен
// таймауту, и его обрабатывает сам запросивший.
func (b *KafkaBus) ServeReplies(ctx context.Context) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: b.cfg.Brokers,
		Topic:   b.replyTopic,
		GroupID: b.replyTopic,
	})
	defer r.Close()

	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			b.log.Warnf("reply reader on %s failed: %v", b.replyTopic, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(jitter.Duration(time.Second, jitter.DefaultJitter)):
			}
			continue
		}

		var env Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			b.log.Warnf("malformed reply on %s: %v", b.replyTopic, err)
			continue
		}

		b.pmu.Lock()
		ch, ok := b.pending[env.CorrelationID]
		b.pmu.Unlock()
		if ok {
			select {
			case ch <- &env:
			default:
			}
		}
	}
}

// Consume читает топик в составе consumer group сервиса и передаёт
// сообщения диспетчеру. Оффсет коммитится только после Ack —
// неподтверждённое сообщение брокер доставит повторно. Nack внутри
// процесса превращается в локальный ретрай с экспоненциальным отступлением.
func (b *KafkaBus) Consume(ctx context.Context, topic string, disp *Dispatcher) {
	const (
		baseBackoff = 200 * time.Millisecond
		maxBackoff  = 5 * time.Second
	)

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: b.cfg.Brokers,
		Topic:   topic,
		GroupID: b.cfg.GroupID,
	})
	defer r.Close()

	b.log.Infof("consuming topic %s as group %s", topic, b.cfg.GroupID)

	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			b.log.Warnf("fetch from %s failed: %v", topic, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(jitter.Duration(time.Second, jitter.DefaultJitter)):
			}
			continue
		}

		var env Envelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			// Нечитаемое сообщение коммитим, иначе оно навсегда заблокирует партицию.
			b.log.Warnf("malformed message on %s at offset %d: %v", topic, msg.Offset, err)
			if err := r.CommitMessages(ctx, msg); err != nil {
				b.log.Warnf("commit of malformed message failed: %v", err)
			}
			continue
		}

		for attempt := 0; ; attempt++ {
			dlv := NewDelivery(&env,
				func() error { return r.CommitMessages(ctx, msg) },
				func() {},
			)
			disp.Dispatch(ctx, dlv)
			if dlv.Acked() {
				break
			}

			select {
			case <-ctx.Done():
				return
			case <-time.After(jitter.ExponentialBackoff(baseBackoff, maxBackoff, attempt, jitter.DefaultJitter)):
			}
		}
	}
}

// Close закрывает все writer'ы.
func (b *KafkaBus) Close(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	for topic, w := range b.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = e.Wrap("close writer for "+topic, err)
		}
	}

	return firstErr
}
