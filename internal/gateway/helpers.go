package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// WriteError отдаёт клиенту статус ошибки. Статус удалённого сервиса
// проходит без изменений, остальное мапится по известным ошибкам.
func WriteError(w http.ResponseWriter, err error) {
	code := e.HTTPStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, err.Error()))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// parseID читает uuid из path-параметра. Невалидный id отбрасывается
// до любого похода в брокер.
func parseID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, e.ErrInvalidID
	}

	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return e.ErrStatusBadRequest
	}

	return nil
}
