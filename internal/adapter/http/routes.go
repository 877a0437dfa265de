package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api", func(r chi.Router) {
		// Runs
		r.Post("/runs", h.SubmitRun)
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{id}", h.GetRun)
		r.Get("/runs/{id}/view", h.GetRunView)
		r.Post("/runs/{id}/interrupt", h.InterruptRun)

		// Context retrieval
		r.Post("/context/search", h.SearchContext)
		r.Get("/context/providers", h.ListContextProviders)

		// Provider runtimes
		r.Get("/providers", h.ListProviders)
		r.Get("/providers/{id}/models", h.ListProviderModels)
		r.Get("/models", h.ListAllModels)

		// Spaces
		r.Post("/spaces", h.CreateSpace)
		r.Get("/spaces", h.ListSpaces)
		r.Get("/spaces/{id}", h.GetSpace)

		// Sessions
		r.Post("/sessions", h.CreateSession)
		r.Get("/sessions", h.ListSessions)
		r.Get("/sessions/{id}", h.GetSession)
	})
}
