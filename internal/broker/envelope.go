package broker

import (
	"encoding/json"
	"time"

	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
)

// Envelope — единый конверт сообщения: и для событий, и для request/reply.
// Для запроса заполняются CorrelationID и ReplyTo; ответ несёт тот же
// CorrelationID и либо Payload, либо Error.
type Envelope struct {
	MessageID     string          `json:"messageId"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Channel       string          `json:"channel"`
	ReplyTo       string          `json:"replyTo,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	Error         *ErrorPayload   `json:"error,omitempty"`
}

// ErrorPayload — структурированная ошибка в ответе.
// StatusCode >= 400 шлюз отдаёт клиенту без изменений.
type ErrorPayload struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// NewMessage создает конверт с сериализованным payload.
func NewMessage(channel string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Envelope{
		MessageID:  uuid.NewString(),
		Channel:    channel,
		OccurredAt: time.Now().UTC(),
		Payload:    data,
	}, nil
}

// NewReply создает успешный ответ на запрос req.
func NewReply(req *Envelope, payload any) (*Envelope, error) {
	env, err := NewMessage(req.Channel, payload)
	if err != nil {
		return nil, err
	}

	env.CorrelationID = req.CorrelationID
	return env, nil
}

// NewErrorReply создает ответ-ошибку на запрос req.
func NewErrorReply(req *Envelope, handlerErr error) *Envelope {
	return &Envelope{
		MessageID:     uuid.NewString(),
		CorrelationID: req.CorrelationID,
		Channel:       req.Channel,
		OccurredAt:    time.Now().UTC(),
		Error: &ErrorPayload{
			StatusCode: e.HTTPStatus(handlerErr),
			Message:    handlerErr.Error(),
		},
	}
}

// Decode десериализует payload конверта в v.
func (env *Envelope) Decode(v any) error {
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return e.Wrap(whereami.WhereAmI(), e.ErrStatusBadRequest)
	}

	return nil
}

// Err возвращает ошибку из конверта-ответа, сохраняя статус сервиса.
func (env *Envelope) Err() error {
	if env.Error == nil {
		return nil
	}

	return e.NewStatusError(env.Error.StatusCode, env.Error.Message)
}
