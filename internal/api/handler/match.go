package handler

import (
	"net/http"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/domain"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/service"
)

// MatchHandler handles match and switch endpoints.
type MatchHandler struct {
	switcher *service.Switcher
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(switcher *service.Switcher) *MatchHandler {
	return &MatchHandler{switcher: switcher}
}

// Match reports which set the tab belongs to and the switch targets to
// render. A tab that matches nothing gets matched: null with status 200;
// the popup renders that as a prompt to add the domain.
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	var req domain.MatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	res, err := h.switcher.Match(r.Context(), profileID(r), req.URL)
	if err != nil {
		handleError(w, err)
		return
	}

	resp := &domain.MatchResponse{
		Protocol: res.Location.Protocol,
		Host:     res.Location.Host,
		Matched:  res.Matched,
		Others:   res.Others,
	}
	if resp.Others == nil {
		resp.Others = []domain.Variant{}
	}
	respondJSON(w, http.StatusOK, resp)
}

// Switch returns the tab URL rewritten onto the target variant.
func (h *MatchHandler) Switch(w http.ResponseWriter, r *http.Request) {
	var req domain.SwitchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	rewritten, err := h.switcher.SwitchURL(req.URL, req.Protocol, req.Domain)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &domain.SwitchResponse{URL: rewritten})
}
