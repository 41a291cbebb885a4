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
  /api/budgets/*       Budgets, months, categories, transactions
  /api/accounts/*      Account register and reconciliation
  /api/transactions/*  Single-transaction operations
  /api/scenarios/*     Demo scenario loaders

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
		// Budget routes
		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", h.ListBudgets)
			r.Post("/", h.CreateBudget)
			r.Get("/{budgetID}", h.GetBudget)
			r.Get("/{budgetID}/months/{month}", h.GetMonth)
			r.Post("/{budgetID}/budgeted", h.SetBudgeted)
			r.Post("/{budgetID}/accounts", h.CreateAccount)
			r.Get("/{budgetID}/payees", h.ListPayees)
			r.Post("/{budgetID}/category-groups", h.CreateCategoryGroup)
			r.Post("/{budgetID}/categories", h.CreateCategory)
			r.Post("/{budgetID}/transactions", h.PostTransaction)
		})

		// Account routes
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/{accountID}/register", h.GetRegister)
			r.Post("/{accountID}/reconcile", h.Reconcile)
		})

		// Transaction routes
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/{id}", h.GetTransaction)
			r.Put("/{id}", h.UpdateTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
		})

		// Demo scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
