/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/families/*       Product families
  /api/products/*       Products and price resolution
  /api/price-books/*    Price books, entries, JSON import
  /api/cost-books/*     Cost books, entries, JSON import
  /api/formulations/*   Formula-driven pricing rules
  /api/index-series/*   Index series and monthly points
  /api/scenarios/*      Scenarios, BOQ lines, totals, preview/apply
  /api/demo/*           Demo dataset loaders
  /api/reset            Database reset (dev only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Catalog routes
		r.Route("/families", func(r chi.Router) {
			r.Get("/", h.ListFamilies)
			r.Post("/", h.SaveFamily)
			r.Delete("/{id}", h.DeleteFamily)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.SaveProduct)
			r.Get("/{id}", h.GetProduct)
			r.Delete("/{id}", h.DeactivateProduct)
			r.Get("/{id}/price", h.ResolveProductPrice)
			r.Get("/{id}/cost", h.ResolveProductCost)
		})

		// Price book routes
		r.Route("/price-books", func(r chi.Router) {
			r.Get("/", h.ListPriceBooks)
			r.Post("/", h.SavePriceBook)
			r.Post("/import", h.ImportPriceBook)
			r.Delete("/{id}", h.DeletePriceBook)
			r.Get("/{id}/entries", h.ListPriceEntries)
			r.Post("/{id}/entries", h.SavePriceEntry)
			r.Delete("/{id}/entries/{entryID}", h.DeletePriceEntry)
		})

		// Cost book routes
		r.Route("/cost-books", func(r chi.Router) {
			r.Get("/", h.ListCostBooks)
			r.Post("/", h.SaveCostBook)
			r.Post("/import", h.ImportCostBook)
			r.Delete("/{id}", h.DeleteCostBook)
			r.Get("/{id}/entries", h.ListCostEntries)
			r.Post("/{id}/entries", h.SaveCostEntry)
			r.Delete("/{id}/entries/{entryID}", h.DeleteCostEntry)
		})

		// Formulation routes
		r.Route("/formulations", func(r chi.Router) {
			r.Get("/", h.ListFormulations)
			r.Post("/", h.SaveFormulation)
			r.Get("/by-product/{productID}", h.GetFormulation)
			r.Delete("/{id}", h.DeleteFormulation)
		})

		// Index series routes
		r.Route("/index-series", func(r chi.Router) {
			r.Get("/", h.ListSeries)
			r.Post("/", h.SaveSeries)
			r.Get("/{id}/points", h.ListIndexPoints)
			r.Post("/{id}/points", h.UpsertIndexPoint)
			r.Delete("/{id}/points/{period}", h.DeleteIndexPoint)
		})

		// Scenario and BOQ routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/", h.SaveScenario)
			r.Get("/{id}", h.GetScenario)

			r.Route("/{id}/boq", func(r chi.Router) {
				r.Get("/", h.ListLines)
				r.Post("/", h.CreateLine)
				r.Get("/totals", h.GetTotals)
				r.Put("/{lineID}", h.UpdateLine)
				r.Delete("/{lineID}", h.DeleteLine)
				r.Get("/{lineID}/preview", h.PreviewLine)
				r.Post("/{lineID}/apply-price", h.ApplyPrice)
			})
		})

		// Demo routes
		r.Route("/demo", func(r chi.Router) {
			r.Get("/scenarios", h.ListDemoScenarios)
			r.Get("/scenarios/current", h.GetCurrentDemoScenario)
			r.Post("/scenarios/load", h.LoadDemoScenario)
		})

		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
