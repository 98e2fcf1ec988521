/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend
  5. Auth:       Bearer-token gate on everything except /api/login

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Login handler and token middleware
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
		// Public
		r.Post("/login", h.Login)

		// Everything else requires a bearer token
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.JWTSecret))

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", h.ListClients)
				r.Post("/", h.CreateClient)
				r.Get("/{id}", h.GetClient)
				r.Put("/{id}", h.UpdateClient)
				r.Get("/{id}/credits", h.ListClientCredits)
			})

			r.Route("/credits", func(r chi.Router) {
				r.Get("/", h.ListActiveCredits)
				r.Post("/", h.CreateCredit)
				r.Get("/completed", h.ListCompletedCredits)
				r.Get("/{id}", h.GetCredit)
				r.Put("/{id}", h.UpdateCredit)
				r.Delete("/{id}", h.DeleteCredit)
				r.Post("/{id}/payments", h.RegisterPayment)
				r.Put("/{id}/payments/{index}", h.EditPayment)
				r.Delete("/{id}/payments/{index}", h.DeletePayment)
				r.Post("/{id}/add-installments", h.AddInstallments)
				r.Post("/{id}/add-products", h.AddProducts)
			})

			r.Get("/agenda", h.GetAgenda)

			r.Route("/reports", func(r chi.Router) {
				r.Get("/summary", h.GetSummary)
				r.Get("/completed-sales", h.GetCompletedSales)
			})
		})
	})

	return r
}
