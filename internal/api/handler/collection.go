package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/service"
)

// CollectionHandler handles collection endpoints.
type CollectionHandler struct {
	switcher *service.Switcher
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(switcher *service.Switcher) *CollectionHandler {
	return &CollectionHandler{switcher: switcher}
}

// Get returns the profile's full collection.
func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.switcher.Collection(r.Context(), profileID(r))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, c)
}

// CreateSet adds a variant set. All members arrive in one submission; a
// validation failure on any of them aborts the whole add.
func (h *CollectionHandler) CreateSet(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateVariantSetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	set, err := h.switcher.AddVariantSet(r.Context(), profileID(r), req.Variants)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, set)
}

// DeleteSet deletes one variant set wholesale.
func (h *CollectionHandler) DeleteSet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.switcher.DeleteSet(r.Context(), profileID(r), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteMatched deletes the set the tab's URL matches.
func (h *CollectionHandler) DeleteMatched(w http.ResponseWriter, r *http.Request) {
	var req domain.DeleteMatchedRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	removed, err := h.switcher.DeleteMatchedSet(r.Context(), profileID(r), req.URL)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, removed)
}

// Reset unconditionally empties the profile's collection.
func (h *CollectionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.switcher.Reset(r.Context(), profileID(r)); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
