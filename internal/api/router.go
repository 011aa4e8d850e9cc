/**
 * @description
 * This file sets up the HTTP router for the pricing service using the
 * go-chi/chi router. It defines the API routes, applies middleware for
 * logging, CORS and internal authentication, and maps the routes to their
 * corresponding handler functions.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the pricing service routes.
func NewRouter(h *Handler, internalAPIKey string) *chi.Mux {
	r := chi.NewRouter()

	// Setup middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Pricing service is healthy"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Identity is established by the platform gateway upstream; these
		// routes consume already-authorized requests.
		r.Post("/quotes", h.handleQuote)
		r.Post("/orders", h.handleCreateOrder)
		r.Get("/orders/{orderID}", h.handleGetOrder)
		r.Get("/clients/{clientID}/loyalty", h.handleGetLoyalty)
		r.Get("/clients/{clientID}/premium", h.handleGetPremiumStatus)

		// Server-to-server routes (logistics and operator apps).
		r.Group(func(r chi.Router) {
			r.Use(InternalAuthMiddleware(internalAPIKey))
			r.Post("/orders/{orderID}/delivered", h.handleMarkDelivered)
		})
	})

	return r
}
