package gateway

import (
	"net/http"

	"github.com/DRSN-tech/commerce-backend/internal/broker"
	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	inventory *InventoryClient
	logger    logger.Logger
}

func NewInventoryHandler(inventory *InventoryClient, logger logger.Logger) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, logger: logger}
}

type adjustStockBody struct {
	ProductID *uuid.UUID `json:"productId"`
	Delta     *int64     `json:"delta"`
}

func (h *InventoryHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var body adjustStockBody
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	if body.ProductID == nil || *body.ProductID == uuid.Nil {
		WriteError(w, e.ErrInvalidID)
		return
	}
	if body.Delta == nil {
		WriteError(w, e.ErrInvalidDelta)
		return
	}

	resp, err := h.inventory.AdjustStock(r.Context(), &broker.AdjustStockRequest{
		ProductID: *body.ProductID,
		Delta:     *body.Delta,
	})
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, resp)
}
