package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vantagehq/vantage/internal/api"
	"github.com/vantagehq/vantage/internal/api/handlers"
	"github.com/vantagehq/vantage/internal/api/middleware"
)

type RouterConfig struct {
	ItemHandler       *handlers.ItemHandler
	SearchHandler     *handlers.SearchHandler
	CollectionHandler *handlers.CollectionHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Uploads go through multipart bodies, so the cap sits above the
	// per-file limit enforced in the item handler.
	const maxBodyBytes int64 = 33 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireWorkspace)

		r.Route("/items", func(r chi.Router) {
			r.Post("/", cfg.ItemHandler.Create)
			r.Post("/upload", cfg.ItemHandler.Upload)
			r.Get("/", cfg.ItemHandler.List)
			r.Get("/{id}", cfg.ItemHandler.Get)
			r.Delete("/{id}", cfg.ItemHandler.Delete)
		})

		r.Post("/search", cfg.SearchHandler.Search)
		r.Post("/search/context", cfg.SearchHandler.Context)
		r.Post("/search/suggest", cfg.SearchHandler.Suggest)

		r.Route("/collections", func(r chi.Router) {
			r.Post("/", cfg.CollectionHandler.Create)
			r.Get("/", cfg.CollectionHandler.List)
			r.Get("/{id}", cfg.CollectionHandler.Get)
		})
	})

	return r
}
