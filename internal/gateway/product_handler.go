package gateway

import (
	"net/http"

	"github.com/DRSN-tech/commerce-backend/internal/broker"
	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	catalog *CatalogClient
	logger  logger.Logger
}

func NewProductHandler(catalog *CatalogClient, logger logger.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

type createProductBody struct {
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	IsActive    *bool            `json:"isActive"`
}

type updateProductBody struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	IsActive    *bool            `json:"isActive"`
}

// createProduct валидирует тело до похода в брокер: битый запрос не должен
// стоить ни одного сообщения.
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var body createProductBody
	if err := decodeBody(r, &body); err != nil {
		p.logger.Warnf("%d %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error())
		WriteError(w, err)
		return
	}

	if body.Title == "" {
		WriteError(w, e.ErrTitleRequired)
		return
	}
	if body.Price == nil {
		WriteError(w, e.ErrInvalidPrice)
		return
	}
	if err := validatePrice(*body.Price); err != nil {
		WriteError(w, err)
		return
	}

	product, err := p.catalog.CreateProduct(r.Context(), &broker.CreateProductRequest{
		Title:       body.Title,
		Description: body.Description,
		Price:       *body.Price,
		IsActive:    body.IsActive,
	})
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, product)
}

func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := p.catalog.ListProducts(r.Context())
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	if products == nil {
		products = []*broker.ProductPayload{}
	}

	WriteSuccess(w, http.StatusOK, products)
}

func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	product, err := p.catalog.GetProduct(r.Context(), id)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, product)
}

func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	var body updateProductBody
	if err := decodeBody(r, &body); err != nil {
		WriteError(w, err)
		return
	}

	if body.Title != nil && *body.Title == "" {
		WriteError(w, e.ErrTitleRequired)
		return
	}
	if body.Price != nil {
		if err := validatePrice(*body.Price); err != nil {
			WriteError(w, err)
			return
		}
	}

	product, err := p.catalog.UpdateProduct(r.Context(), &broker.UpdateProductRequest{
		ProductID:   id,
		Title:       body.Title,
		Description: body.Description,
		Price:       body.Price,
		IsActive:    body.IsActive,
	})
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, product)
}

func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := p.catalog.DeleteProduct(r.Context(), id); err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"deleted": true,
	})
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return e.ErrInvalidPrice
	}
	if price.Exponent() < -2 {
		return e.ErrPricePrecision
	}

	return nil
}
