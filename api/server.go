/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/powerup/*      PowerUp simulation
  /api/directbonus/*  Direct Bonus simulation
  /api/jobs/*         Job polling and cancellation by id
  /api/hierarchy      Hierarchy cache status and clearing
  /api/health         Liveness

SECURITY NOTE:
  No authentication middleware. The simulator is an internal analysis
  tool, not a public service.

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
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// PowerUp simulation
		r.Route("/powerup", func(r chi.Router) {
			r.Get("/config", h.GetPowerUpConfig)
			r.Get("/presets", h.GetPromotionPresets)
			r.Post("/run", h.RunPowerUp)
			r.Get("/status", h.GetPowerUpStatus)
			r.Post("/cancel", h.CancelPowerUp)
		})

		// Direct Bonus simulation
		r.Route("/directbonus", func(r chi.Router) {
			r.Get("/config", h.GetDirectBonusConfig)
			r.Post("/run", h.RunDirectBonus)
			r.Get("/status", h.GetDirectBonusStatus)
			r.Post("/cancel", h.CancelDirectBonus)
		})

		// Jobs by id
		r.Route("/jobs", func(r chi.Router) {
			r.Get("/{id}", h.GetJob)
			r.Post("/{id}/cancel", h.CancelJob)
		})

		// Hierarchy cache
		r.Route("/hierarchy", func(r chi.Router) {
			r.Get("/", h.GetHierarchyStatus)
			r.Delete("/", h.ClearHierarchy)
		})
	})

	return r
}
