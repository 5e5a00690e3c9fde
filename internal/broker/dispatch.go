package broker

import (
	"context"
	"fmt"
	"sync"

	"github.com/DRSN-tech/commerce-backend/pkg/logger"
)

// HandlerFunc обрабатывает один конверт. Для request/reply каналов
// возвращает конверт-ответ; для событий возвращает nil.
type HandlerFunc func(ctx context.Context, env *Envelope) (*Envelope, error)

// Delivery — одно доставленное сообщение. Ровно один вызов Ack или Nack:
// повторные вызовы игнорируются.
type Delivery struct {
	Env *Envelope

	once   sync.Once
	acked  bool
	ackErr error
	ackFn  func() error
	nackFn func()
}

func NewDelivery(env *Envelope, ackFn func() error, nackFn func()) *Delivery {
	return &Delivery{Env: env, ackFn: ackFn, nackFn: nackFn}
}

// Ack подтверждает сообщение (для Kafka — коммит оффсета).
func (d *Delivery) Ack() error {
	d.once.Do(func() {
		d.acked = true
		if d.ackFn != nil {
			d.ackErr = d.ackFn()
		}
	})

	return d.ackErr
}

// Nack отклоняет сообщение: оно будет доставлено повторно.
func (d *Delivery) Nack() {
	d.once.Do(func() {
		if d.nackFn != nil {
			d.nackFn()
		}
	})
}

func (d *Delivery) Acked() bool {
	return d.acked
}

// Dispatcher — явная таблица диспетчеризации: имя канала -> обработчик.
// Собирается на старте сервиса и тестируется без брокера.
type Dispatcher struct {
	bus      Bus
	log      logger.Logger
	handlers map[string]HandlerFunc
}

func NewDispatcher(bus Bus, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		bus:      bus,
		log:      log,
		handlers: make(map[string]HandlerFunc),
	}
}

// Handle регистрирует обработчик канала. Повторная регистрация — ошибка программиста.
func (d *Dispatcher) Handle(channel string, h HandlerFunc) {
	if _, ok := d.handlers[channel]; ok {
		panic(fmt.Sprintf("broker: duplicate handler for channel %q", channel))
	}
	d.handlers[channel] = h
}

// Dispatch обрабатывает доставку: находит обработчик по каналу, для
// request/reply публикует ответ, после чего подтверждает сообщение.
// Ack/Nack вызывается ровно один раз, в том числе при панике обработчика.
func (d *Dispatcher) Dispatch(ctx context.Context, dlv *Delivery) {
	env := dlv.Env

	defer func() {
		if r := recover(); r != nil {
			d.log.Errorf(fmt.Errorf("%v", r), "panic in handler for channel %s", env.Channel)
			dlv.Nack()
		}
	}()

	h, ok := d.handlers[env.Channel]
	if !ok {
		// Неизвестный канал подтверждаем, иначе сообщение зациклит партицию.
		d.log.Warnf("no handler for channel %s, dropping message %s", env.Channel, env.MessageID)
		d.ack(dlv)
		return
	}

	reply, err := h(ctx, env)

	if env.ReplyTo != "" {
		if err != nil {
			reply = NewErrorReply(env, err)
		} else if reply == nil {
			reply, err = NewReply(env, struct{}{})
			if err != nil {
				dlv.Nack()
				return
			}
		}

		if pubErr := d.bus.Publish(ctx, env.ReplyTo, env.CorrelationID, reply); pubErr != nil {
			// Ответ не ушёл: запрос будет доставлен повторно, обработчики идемпотентны.
			d.log.Errorf(pubErr, "failed to publish reply to %s", env.ReplyTo)
			dlv.Nack()
			return
		}

		d.ack(dlv)
		return
	}

	if err != nil {
		d.log.Warnf("handler for %s failed: %v", env.Channel, err)
		dlv.Nack()
		return
	}

	d.ack(dlv)
}

func (d *Dispatcher) ack(dlv *Delivery) {
	if err := dlv.Ack(); err != nil {
		// Коммит не прошёл: сообщение придёт снова, это штатно для at-least-once.
		d.log.Warnf("ack failed for message %s: %v", dlv.Env.MessageID, err)
	}
}
