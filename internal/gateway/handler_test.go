package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DRSN-tech/commerce-backend/internal/broker"
	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubServices поднимает in-process заглушки каталога и склада на шине.
func stubServices(t *testing.T, bus *broker.MemoryBus, known uuid.UUID) {
	t.Helper()

	catalogDisp := broker.NewDispatcher(bus, logger.NewNop())
	catalogDisp.Handle(broker.ChannelCreateProduct, func(ctx context.Context, env *broker.Envelope) (*broker.Envelope, error) {
		var req broker.CreateProductRequest
		if err := env.Decode(&req); err != nil {
			return nil, err
		}
		return broker.NewReply(env, broker.ProductPayload{
			ID:       uuid.New(),
			Title:    req.Title,
			Price:    req.Price,
			IsActive: true,
		})
	})
	catalogDisp.Handle(broker.ChannelGetProduct, func(ctx context.Context, env *broker.Envelope) (*broker.Envelope, error) {
		var req broker.GetProductRequest
		if err := env.Decode(&req); err != nil {
			return nil, err
		}
		if req.ProductID != known {
			return nil, e.ErrProductNotFound
		}
		return broker.NewReply(env, broker.ProductPayload{ID: known, Title: "Desk"})
	})
	catalogDisp.Handle(broker.ChannelListProducts, func(ctx context.Context, env *broker.Envelope) (*broker.Envelope, error) {
		return broker.NewReply(env, []broker.ProductPayload{})
	})
	bus.Subscribe(broker.TopicCatalogRPC, catalogDisp)

	inventoryDisp := broker.NewDispatcher(bus, logger.NewNop())
	inventoryDisp.Handle(broker.ChannelAdjustStock, func(ctx context.Context, env *broker.Envelope) (*broker.Envelope, error) {
		var req broker.AdjustStockRequest
		if err := env.Decode(&req); err != nil {
			return nil, err
		}
		q := req.Delta
		if q < 0 {
			q = 0
		}
		return broker.NewReply(env, broker.AdjustStockResponse{ProductID: req.ProductID, Quantity: q})
	})
	bus.Subscribe(broker.TopicInventoryRPC, inventoryDisp)
}

func newTestRouter(bus *broker.MemoryBus) *chi.Mux {
	log := logger.NewNop()
	catalogClient := NewCatalogClient(bus, time.Second, log)
	inventoryClient := NewInventoryClient(bus, time.Second, log)

	r := chi.NewRouter()
	router := NewRouter(r, log)
	router.Init(catalogClient, inventoryClient)
	return r
}

func TestCreateProductReturnsCreated(t *testing.T) {
	bus := broker.NewMemoryBus(logger.NewNop())
	stubServices(t, bus, uuid.New())
	r := newTestRouter(bus)

	body := []byte(`{"title":"Desk","price":"249.99"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var payload broker.ProductPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	assert.Equal(t, "Desk", payload.Title)
	assert.True(t, payload.Price.Equal(decimal.RequireFromString("249.99")))
}

func TestCreateProductValidatesBeforeBrokerCall(t *testing.T) {
	// Шина без подписчиков: если бы запрос дошёл до брокера, был бы 503.
	bus := broker.NewMemoryBus(logger.NewNop())
	r := newTestRouter(bus)

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"price":"10.00"}`},
		{"missing price", `{"title":"Desk"}`},
		{"negative price", `{"title":"Desk","price":"-1"}`},
		{"price too precise", `{"title":"Desk","price":"9.999"}`},
		{"malformed json", `{`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader([]byte(tc.body)))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetProductNotFoundPassesThrough(t *testing.T) {
	bus := broker.NewMemoryBus(logger.NewNop())
	stubServices(t, bus, uuid.New())
	r := newTestRouter(bus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetProductInvalidIDIsBadRequest(t *testing.T) {
	bus := broker.NewMemoryBus(logger.NewNop())
	r := newTestRouter(bus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnavailableCatalogIsServiceUnavailable(t *testing.T) {
	// Никто не слушает rpc-топики: все запросы должны закончиться 503, не 404.
	bus := broker.NewMemoryBus(logger.NewNop())
	r := newTestRouter(bus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetProductMangledErrorReplyIsInternalServerError(t *testing.T) {
	// Сервис прислал конверт-ошибку без статуса. Шлюз обязан ответить 500,
	// а не отдать нулевой код в WriteHeader.
	bus := broker.NewMemoryBus(logger.NewNop())
	disp := broker.NewDispatcher(bus, logger.NewNop())
	disp.Handle(broker.ChannelGetProduct, func(_ context.Context, env *broker.Envelope) (*broker.Envelope, error) {
		reply, err := broker.NewReply(env, struct{}{})
		if err != nil {
			return nil, err
		}
		reply.Error = &broker.ErrorPayload{StatusCode: 0, Message: "mangled"}
		return reply, nil
	})
	bus.Subscribe(broker.TopicCatalogRPC, disp)
	r := newTestRouter(bus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	require.NotPanics(t, func() { r.ServeHTTP(w, req) })

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestListProductsReturnsEmptyArray(t *testing.T) {
	bus := broker.NewMemoryBus(logger.NewNop())
	stubServices(t, bus, uuid.New())
	r := newTestRouter(bus)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAdjustStock(t *testing.T) {
	bus := broker.NewMemoryBus(logger.NewNop())
	stubServices(t, bus, uuid.New())
	r := newTestRouter(bus)

	productID := uuid.New()
	body, err := json.Marshal(map[string]any{"productId": productID, "delta": 5})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/inventory/adjust", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp broker.AdjustStockResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, productID, resp.ProductID)
	assert.Equal(t, int64(5), resp.Quantity)
}

func TestAdjustStockValidation(t *testing.T) {
	bus := broker.NewMemoryBus(logger.NewNop())
	r := newTestRouter(bus)

	cases := []struct {
		name string
		body string
	}{
		{"missing product id", `{"delta":5}`},
		{"missing delta", `{"productId":"` + uuid.NewString() + `"}`},
		{"malformed json", `delta=5`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/inventory/adjust", bytes.NewReader([]byte(tc.body)))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
