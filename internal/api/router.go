package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter mounts every POS API route under /api.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/low-stock", h.ListLowStockProducts)
			r.Get("/{productId}", h.GetProduct)
		})

		r.Get("/discounts/eligible", h.ListEligibleDiscounts)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListOrders)
			r.Get("/{orderId}", h.GetOrder)
			r.Get("/{orderId}/reopen", h.ReopenOrder)
			r.Put("/{orderId}/complete", h.CompleteOrder)
			r.Put("/{orderId}/cancel", h.CancelOrder)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Post("/inbound", h.RecordInbound)
			r.Post("/outbound", h.RecordOutbound)
			r.Get("/transactions", h.ListTransactions)
		})

		r.Get("/tax-config", h.GetTaxConfig)
		r.Put("/tax-config", h.UpdateTaxConfig)
	})

	return r
}
