/*
server.go - HTTP server setup and routing

PURPOSE:
  Configures the chi router with middleware and wires URL paths to the
  handlers in handlers.go.

MIDDLEWARE STACK (applied in order):
  1. Logger    - request logging
  2. Recoverer - panic recovery, 500 instead of crash
  3. RequestID - unique id per request for tracing
  4. CORS      - permissive cross-origin for dashboard clients

SEE ALSO:
  - handlers.go: Handler implementations
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates the router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Actor-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/leaves", func(r chi.Router) {
			r.Post("/", h.SubmitLeave)
			r.Get("/", h.ListLeaves)
			r.Get("/digest", h.GetDigest)
			r.Post("/{id}/approve", h.ApproveLeave)
			r.Post("/{id}/decline", h.DeclineLeave)
			r.Post("/{id}/claim", h.ClaimLeave)
		})

		r.Post("/tickets", h.SubmitTicket)
		r.Route("/raffle", func(r chi.Router) {
			r.Get("/report/current", h.GetCurrentPeriodReport)
			r.Get("/report/previous", h.GetPriorPeriodReport)
		})

		r.Get("/status", h.GetStatus)
		r.Post("/admin/modules/{name}", h.ToggleModule)
		r.Post("/admin/reminders/sweep", h.TriggerReminderSweep)
	})

	return r
}
