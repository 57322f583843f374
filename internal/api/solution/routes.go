package solution

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers solution routes; limit wraps the generation
// endpoint.
func RegisterRoutes(r chi.Router, h *Handler, limit func(http.Handler) http.Handler) {
	r.Route("/solutions", func(r chi.Router) {
		r.With(limit).Post("/", h.CreateSolution)

		r.Route("/{plan_id}", func(r chi.Router) {
			r.Get("/", h.GetSolution)
			r.Get("/export", h.ExportSolution)
		})
	})
}
