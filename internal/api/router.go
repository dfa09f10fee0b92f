// Package api exposes the HTTP surface the popup UI and the CLI client
// consume.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/api/handler"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/api/middleware"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/service"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/storage"
)

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(
	store storage.Storage,
	switcher *service.Switcher,
	bootstrapKey string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(logger))

	// Health check (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes (auth required, JSON Content-Type)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentType)
		r.Use(middleware.Auth(store, bootstrapKey))

		// API Keys
		keyHandler := handler.NewAPIKeyHandler(store)
		r.Post("/keys", keyHandler.Create)
		r.Get("/keys", keyHandler.List)
		r.Delete("/keys/{id}", keyHandler.Delete)

		// Collection
		collectionHandler := handler.NewCollectionHandler(switcher)
		r.Get("/collection", collectionHandler.Get)
		r.Post("/collection/sets", collectionHandler.CreateSet)
		r.Delete("/collection/sets/{id}", collectionHandler.DeleteSet)
		r.Post("/collection/sets/delete-matched", collectionHandler.DeleteMatched)
		r.Post("/collection/reset", collectionHandler.Reset)

		// Matching and switching
		matchHandler := handler.NewMatchHandler(switcher)
		r.Post("/match", matchHandler.Match)
		r.Post("/switch", matchHandler.Switch)
	})

	return r
}
