package server

import (
	"net/http"

	"github.com/brandforge-ai/brandforge/internal/api"
	"github.com/brandforge-ai/brandforge/internal/api/handlers"
	"github.com/brandforge-ai/brandforge/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	AgentHandler   *handlers.AgentHandler
	ContentHandler *handlers.ContentHandler
	BrandHandler   *handlers.BrandHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/agents", func(r chi.Router) {
		r.Post("/", cfg.AgentHandler.Create)
		r.Get("/{id}", cfg.AgentHandler.Get)
		r.Put("/{id}", cfg.AgentHandler.Update)
		r.Post("/{id}/brand-knowledge", cfg.BrandHandler.Build)
		r.Delete("/{id}/knowledge", cfg.BrandHandler.ResetKnowledge)
	})

	r.Route("/content", func(r chi.Router) {
		r.Post("/", cfg.ContentHandler.Create)
		r.Get("/{id}", cfg.ContentHandler.Get)
		r.Get("/{id}/versions", cfg.ContentHandler.ListVersions)
		r.Get("/{id}/versions/{version}", cfg.ContentHandler.GetVersion)
	})

	r.Get("/requests/{id}", cfg.ContentHandler.GetRequest)
	r.Get("/jobs/{id}", cfg.BrandHandler.GetJob)

	return r
}
