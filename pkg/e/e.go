package e

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// 400 Bad Request
	ErrTitleRequired    = fmt.Errorf("product title is required")
	ErrInvalidPrice     = fmt.Errorf("price must be a non-negative decimal")
	ErrPricePrecision   = fmt.Errorf("price must have at most 2 decimal places")
	ErrInvalidDelta     = fmt.Errorf("delta must be an integer")
	ErrInvalidID        = fmt.Errorf("invalid id")
	ErrStatusBadRequest = fmt.Errorf("bad request")

	// 404 Not Found
	ErrProductNotFound = fmt.Errorf("product not found")

	// 409 Conflict
	ErrProductAlreadyExists = fmt.Errorf("product already exists")

	// 503 Service Unavailable: брокер недоступен или ответ не пришёл вовремя.
	// Никогда не схлопывается в NotFound.
	ErrUpstreamUnavailable = fmt.Errorf("upstream service unavailable")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// StatusError переносит статус удалённого сервиса через брокер:
// шлюз отдаёт клиенту ровно тот код, который вернул сервис.
type StatusError struct {
	Code    int
	Message string
}

func NewStatusError(code int, message string) *StatusError {
	return &StatusError{Code: code, Message: message}
}

func (s *StatusError) Error() string {
	return s.Message
}

// HTTPStatus возвращает HTTP-статус для ошибки.
// Неопознанные ошибки считаются внутренними (500).
func HTTPStatus(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		// Испорченный или отсутствующий статус из ответа сервиса не должен
		// попасть в WriteHeader: вне [400, 599] — это внутренняя ошибка.
		if statusErr.Code < http.StatusBadRequest || statusErr.Code > 599 {
			return http.StatusInternalServerError
		}
		return statusErr.Code
	}

	switch {
	case errors.Is(err, ErrTitleRequired),
		errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrPricePrecision),
		errors.Is(err, ErrInvalidDelta),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrStatusBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrProductAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
