package e

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrTitleRequired, http.StatusBadRequest},
		{ErrInvalidPrice, http.StatusBadRequest},
		{ErrProductNotFound, http.StatusNotFound},
		{ErrProductAlreadyExists, http.StatusConflict},
		{ErrUpstreamUnavailable, http.StatusServiceUnavailable},
		{ErrInternalServerError, http.StatusInternalServerError},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestHTTPStatusSurvivesWrapping(t *testing.T) {
	err := Wrap("ProductUseCase.GetProduct", Wrap("repo", ErrProductNotFound))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestHTTPStatusClampsInvalidRemoteStatus(t *testing.T) {
	// Ответ с кодом вне [400, 599] — испорченный конверт, а не статус для клиента.
	for _, code := range []int{0, -1, 200, 302, 399, 600, 1000} {
		assert.Equal(t, http.StatusInternalServerError, HTTPStatus(NewStatusError(code, "mangled")), "code %d", code)
	}

	for _, code := range []int{400, 404, 409, 503, 599} {
		assert.Equal(t, code, HTTPStatus(NewStatusError(code, "remote")), "code %d", code)
	}
}

func TestStatusErrorOverridesSentinels(t *testing.T) {
	// Статус удалённого сервиса проходит сквозь шлюз без переинтерпретации.
	err := Wrap("gateway", NewStatusError(http.StatusNotFound, "product not found"))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
	assert.EqualError(t, NewStatusError(418, "teapot"), "teapot")
	assert.Equal(t, 418, HTTPStatus(NewStatusError(418, "teapot")))
}
