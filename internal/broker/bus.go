package broker

import "context"

// Bus — порт брокера сообщений. Передаётся в конструкторы сервисов явно,
// никаких глобальных клиентов.
//
// Publish — событие без ожидания ответа (fire-and-forget).
// Request — коррелированный запрос с ожиданием ровно одного ответа;
// дедлайн берётся из ctx и обязан быть конечным. По таймауту или
// недоступности брокера возвращается e.ErrUpstreamUnavailable.
type Bus interface {
	Publish(ctx context.Context, topic, key string, env *Envelope) error
	Request(ctx context.Context, topic string, env *Envelope) (*Envelope, error)
}
