package gateway

import (
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(catalog *CatalogClient, inventory *InventoryClient) {
	r.router.Route("/api/v1", func(v1 chi.Router) {
		prHandler := NewProductHandler(catalog, r.logger)
		registerProductRoutes(v1, prHandler)

		invHandler := NewInventoryHandler(inventory, r.logger)
		registerInventoryRoutes(v1, invHandler)
	})
}

func (r *Router) Mux() *chi.Mux {
	return r.router
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Post("/", prHandler.createProduct)
		pr.Get("/", prHandler.listProducts)
		pr.Get("/{id}", prHandler.getProduct)
		pr.Patch("/{id}", prHandler.updateProduct)
		pr.Delete("/{id}", prHandler.deleteProduct)
	})
}

func registerInventoryRoutes(router chi.Router, invHandler *InventoryHandler) {
	router.Route("/inventory", func(inv chi.Router) {
		inv.Patch("/adjust", invHandler.adjustStock)
	})
}
